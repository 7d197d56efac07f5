package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
)

const fixtureYAML = `
users:
  - email: 20240001@example.ac.jp
    name: "  Hana  "
    password: secret123
  - email: kato@example.ac.jp
    name: Kato
    password: secret123
    language: en
circles:
  - name: Hiking
    description: Weekend hikes
    tags: [outdoor, outdoor, nature]
    instructors: [KATO@example.ac.jp]
    members:
      - email: 20240001@example.ac.jp
        role: representative
`

func TestLoadFixture_Validation(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	assert.Equal(t, "Hana", f.Users[0].Name)

	cases := map[string]string{
		"empty":         "",
		"unknown key":   "users: []\nclubs: []\n",
		"bad role":      "circles:\n  - name: A\n    members:\n      - email: a@b.cd\n        role: boss\n",
		"no rep":        "circles:\n  - name: A\n    members:\n      - email: a@b.cd\n",
		"short pass":    "users:\n  - email: a@b.cd\n    name: A\n    password: x\n",
		"duplicate":     "users:\n  - {email: a@b.cd, name: A, password: secret123}\n  - {email: A@b.cd, name: B, password: secret123}\n",
		"nameless club": "circles:\n  - description: x\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFixture(strings.NewReader(doc))
			assert.ErrorIs(t, err, pkg.ErrBadRequest)
		})
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	f, err := LoadFixture(strings.NewReader(fixtureYAML))
	require.NoError(t, err)

	result, err := Seed(ctx, store, f, "ja", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{UsersCreated: 2, CirclesCreated: 1}, result)

	hana, err := store.Users.GetByEmail(ctx, "20240001@example.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, "ja", hana.Language)
	require.NotNil(t, hana.StudentNumber)
	assert.Equal(t, "20240001", *hana.StudentNumber)

	kato, err := store.Users.GetByEmail(ctx, "kato@example.ac.jp")
	require.NoError(t, err)
	assert.True(t, kato.IsInstructor)

	circles, err := store.Circles.List(ctx)
	require.NoError(t, err)
	require.Len(t, circles, 1)
	circle, err := store.Circles.GetByID(ctx, circles[0].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"outdoor", "nature"}, circle.Tags)
	require.Len(t, circle.Instructors, 1)
	assert.Equal(t, kato.ID, circle.Instructors[0].UserID)

	member, err := store.Members.GetActive(ctx, circle.ID, hana.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleRepresentative, member.Role)

	again, err := Seed(ctx, store, f, "ja", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{UsersSkipped: 2, CirclesSkipped: 1}, again)
}

func TestSeed_UnknownMemberRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	f, err := LoadFixture(strings.NewReader(`
users:
  - {email: 20240002@example.ac.jp, name: Ren, password: secret123}
circles:
  - name: Chess
    members:
      - {email: nobody@example.ac.jp, role: representative}
`))
	require.NoError(t, err)

	_, err = Seed(ctx, store, f, "ja", zap.NewNop())
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = store.Users.GetByEmail(ctx, "20240002@example.ac.jp")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

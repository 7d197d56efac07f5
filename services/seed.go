package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
)

// Fixture is the YAML document read by the seed command.
//
//	users:
//	  - email: 20240001@example.ac.jp
//	    name: Hana
//	    password: secret123
//	circles:
//	  - name: Hiking
//	    tags: [outdoor]
//	    instructors: [kato@example.ac.jp]
//	    members:
//	      - email: 20240001@example.ac.jp
//	        role: representative
type Fixture struct {
	Users   []FixtureUser   `yaml:"users"`
	Circles []FixtureCircle `yaml:"circles"`
}

type FixtureUser struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Language string `yaml:"language"`
}

type FixtureCircle struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Location    string          `yaml:"location"`
	ActivityDay string          `yaml:"activity_day"`
	Tags        []string        `yaml:"tags"`
	Instructors []string        `yaml:"instructors"` // emails
	Members     []FixtureMember `yaml:"members"`
}

type FixtureMember struct {
	Email string `yaml:"email"`
	Role  string `yaml:"role"` // representative | vice_representative | member
}

// SeedResult counts inserted and already present rows.
type SeedResult struct {
	UsersCreated   int `json:"users_created"`
	UsersSkipped   int `json:"users_skipped"`
	CirclesCreated int `json:"circles_created"`
	CirclesSkipped int `json:"circles_skipped"`
}

// LoadFixture decodes and validates a fixture. Unknown keys are rejected.
func LoadFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: fixture is empty", pkg.ErrBadRequest)
		}
		return nil, fmt.Errorf("%w: invalid fixture: %s", pkg.ErrBadRequest, err.Error())
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	seen := make(map[string]bool, len(f.Users))
	for i := range f.Users {
		u := &f.Users[i]
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		req := models.RegisterRequest{Email: u.Email, Password: u.Password, Name: u.Name, Language: u.Language}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("user %q: %w", u.Email, err)
		}
		u.Name = req.Name
		if seen[u.Email] {
			return fmt.Errorf("user %q listed twice", u.Email)
		}
		seen[u.Email] = true
	}

	for i := range f.Circles {
		c := &f.Circles[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return fmt.Errorf("circle #%d has no name", i+1)
		}
		representatives := 0
		for j := range c.Members {
			m := &c.Members[j]
			m.Email = strings.ToLower(strings.TrimSpace(m.Email))
			role, err := parseFixtureRole(m.Role)
			if err != nil {
				return fmt.Errorf("circle %q member %q: %w", c.Name, m.Email, err)
			}
			if role == models.RoleRepresentative {
				representatives++
			}
		}
		if representatives != 1 {
			return fmt.Errorf("circle %q needs exactly one representative, has %d", c.Name, representatives)
		}
	}
	return nil
}

func parseFixtureRole(s string) (models.Role, error) {
	switch s {
	case "representative":
		return models.RoleRepresentative, nil
	case "vice_representative":
		return models.RoleViceRepresentative, nil
	case "member", "":
		return models.RoleMember, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Seed inserts the fixture in one transaction. Users whose email and
// circles whose name already exist are left untouched, so seeding twice is
// harmless. Members and instructors are referenced by email and may be
// fixture users or existing accounts.
func Seed(ctx context.Context, store *repository.Store, f *Fixture, defaultLanguage string, logger *zap.Logger) (SeedResult, error) {
	log := logger.Named("seed")
	var result SeedResult

	err := store.WithTx(ctx, func(tx *repository.Repos) error {
		result = SeedResult{}
		userIDs := make(map[string]string)

		for _, fu := range f.Users {
			existing, err := tx.Users.GetByEmail(ctx, fu.Email)
			if err == nil {
				userIDs[fu.Email] = existing.ID
				result.UsersSkipped++
				continue
			}
			if !errors.Is(err, pkg.ErrNotFound) {
				return err
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcryptCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			studentNumber, isInstructor := models.ClassifyEmail(fu.Email)
			language := fu.Language
			if language == "" {
				language = defaultLanguage
			}
			user := &models.User{
				Email:         fu.Email,
				Name:          fu.Name,
				PasswordHash:  string(hash),
				StudentNumber: studentNumber,
				IsInstructor:  isInstructor,
				Language:      language,
			}
			if err := tx.Users.Create(ctx, user); err != nil {
				return err
			}
			userIDs[fu.Email] = user.ID
			result.UsersCreated++
		}

		lookup := func(email string) (string, error) {
			if id, ok := userIDs[email]; ok {
				return id, nil
			}
			user, err := tx.Users.GetByEmail(ctx, email)
			if err != nil {
				if errors.Is(err, pkg.ErrNotFound) {
					return "", fmt.Errorf("%w: unknown user %q", pkg.ErrBadRequest, email)
				}
				return "", err
			}
			userIDs[email] = user.ID
			return user.ID, nil
		}

		for _, fc := range f.Circles {
			taken, err := tx.Circles.NameTaken(ctx, fc.Name, "")
			if err != nil {
				return err
			}
			if taken {
				result.CirclesSkipped++
				continue
			}

			circle := &models.Circle{
				Name:        fc.Name,
				Description: fc.Description,
				Location:    fc.Location,
				ActivityDay: fc.ActivityDay,
			}
			if err := tx.Circles.Create(ctx, circle); err != nil {
				return err
			}
			if err := tx.Circles.AddTags(ctx, circle.ID, dedupe(fc.Tags)); err != nil {
				return err
			}

			instructorIDs := make([]string, 0, len(fc.Instructors))
			for _, email := range fc.Instructors {
				id, err := lookup(strings.ToLower(strings.TrimSpace(email)))
				if err != nil {
					return err
				}
				instructorIDs = append(instructorIDs, id)
			}
			if err := tx.Circles.AddInstructors(ctx, circle.ID, instructorIDs); err != nil {
				return err
			}

			for _, fm := range fc.Members {
				id, err := lookup(fm.Email)
				if err != nil {
					return err
				}
				role, _ := parseFixtureRole(fm.Role)
				if err := tx.Members.Add(ctx, &models.CircleMember{CircleID: circle.ID, UserID: id, Role: role}); err != nil {
					return fmt.Errorf("circle %q: %w", fc.Name, err)
				}
			}
			result.CirclesCreated++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	log.Info("fixture seeded",
		zap.Int("users_created", result.UsersCreated),
		zap.Int("users_skipped", result.UsersSkipped),
		zap.Int("circles_created", result.CirclesCreated),
		zap.Int("circles_skipped", result.CirclesSkipped),
	)
	return result, nil
}

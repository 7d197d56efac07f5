package repository

import (
	"context"
	"database/sql"

	"github.com/akinalp/circles/database"
)

// Repos bundles every repository bound to one querier: the shared pool or
// a single transaction.
type Repos struct {
	Users             UserRepository
	Sessions          SessionRepository
	ResetTokens       PasswordResetRepository
	Circles           CircleRepository
	Members           MemberRepository
	Requests          MembershipRequestRepository
	Activities        ActivityRepository
	Topics            TopicRepository
	Albums            AlbumRepository
	WelcomeCards      WelcomeCardRepository
	Notifications     NotificationRepository
	PushSubscriptions PushSubscriptionRepository
	KeywordEmbeddings KeywordEmbeddingRepository
}

func NewRepos(db database.TxQuerier) *Repos {
	return &Repos{
		Users:             NewSQLiteUserRepo(db),
		Sessions:          NewSQLiteSessionRepo(db),
		ResetTokens:       NewSQLiteResetTokenRepo(db),
		Circles:           NewSQLiteCircleRepo(db),
		Members:           NewSQLiteMemberRepo(db),
		Requests:          NewSQLiteMembershipRequestRepo(db),
		Activities:        NewSQLiteActivityRepo(db),
		Topics:            NewSQLiteTopicRepo(db),
		Albums:            NewSQLiteAlbumRepo(db),
		WelcomeCards:      NewSQLiteWelcomeCardRepo(db),
		Notifications:     NewSQLiteNotificationRepo(db),
		PushSubscriptions: NewSQLitePushSubscriptionRepo(db),
		KeywordEmbeddings: NewSQLiteKeywordEmbeddingRepo(db),
	}
}

// Store exposes the pool-bound repositories and runs multi-step writes
// atomically. Inside WithTx only the tx-bound Repos passed to fn may be
// used; the pool-bound ones would wait on the write lock.
type Store struct {
	*Repos
	conn *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{Repos: NewRepos(conn), conn: conn}
}

// WithTx commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Repos) error) error {
	return database.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		return fn(NewRepos(tx))
	})
}

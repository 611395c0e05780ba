package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"bridgeofhope/internal/model"
)

var (
	ErrLoginExists        = errors.New("login already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

const uniqueViolation = "23505"

type AuthService struct {
	db *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) Register(ctx context.Context, login, name, password string) (*model.Organization, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `INSERT INTO organizations (login, name, password_hash) VALUES ($1, $2, $3) RETURNING id, login, name, created_at`
	row := s.db.QueryRowContext(ctx, query, login, name, hash)

	var org model.Organization
	if err := row.Scan(&org.ID, &org.Login, &org.Name, &org.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrLoginExists
		}
		return nil, fmt.Errorf("insert organization: %w", err)
	}
	org.PasswordHash = hash

	return &org, nil
}

func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.Organization, error) {
	query := `SELECT id, login, name, password_hash, created_at FROM organizations WHERE login = $1`
	row := s.db.QueryRowContext(ctx, query, login)

	var org model.Organization
	if err := row.Scan(&org.ID, &org.Login, &org.Name, &org.PasswordHash, &org.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(org.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &org, nil
}

// Package auth はユーザー登録とログインを提供する。
// パスワードはハッシュ化せず、トークンは固定形式のプレースホルダーである。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/taskapi/internal/model"
	"github.com/hitoshi/taskapi/internal/repository"
)

// 認証イベント名（メトリクス用）
const (
	EventRegistered   = "registered"
	EventLoginSuccess = "login_success"
	EventLoginFailure = "login_failure"
)

// EventRecorder は認証イベントの記録インターフェース。
type EventRecorder interface {
	RecordAuthEvent(event string)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	recorder EventRecorder
	now      func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(userRepo repository.UserRepository, recorder EventRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		recorder: recorder,
		now:      time.Now,
	}
}

// Register は新規ユーザーを登録する。
// ユーザー名、メールアドレスの順に重複を確認し、重複していれば登録しない。
// パスワードは受け取った値をそのまま保存する。
func (s *Service) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	email = NormalizeEmail(email)

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, model.NewUsernameAlreadyRegisteredError()
	}

	existing, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyRegisteredError()
	}

	now := model.NormalizeTime(s.now())
	user := &model.User{
		Email:     email,
		Username:  username,
		Password:  password,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 確認後に別リクエストが同じ値で登録した場合
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			if dup.Column == "email" {
				return nil, model.NewEmailAlreadyRegisteredError()
			}
			return nil, model.NewUsernameAlreadyRegisteredError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
	)
	s.record(EventRegistered)

	return user, nil
}

// Login はユーザー名とパスワードを照合し、プレースホルダートークンを返す。
// ユーザーが存在しない場合とパスワードが一致しない場合は同じエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.AccessToken, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.Password != password {
		s.record(EventLoginFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	s.record(EventLoginSuccess)
	token := model.NewPlaceholderToken(user.Username)
	return &token, nil
}

func (s *Service) record(event string) {
	if s.recorder != nil {
		s.recorder.RecordAuthEvent(event)
	}
}

// NormalizeEmail はメールアドレスのドメイン部を小文字に揃える。
// ローカル部は大文字小文字を区別するため変更しない。
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onlinestore-api/internal/domain"
	"github.com/onlinestore-api/internal/pkg/code"
)

// Access token policy. Fixed for now; candidates for configuration.
const (
	TokenType     = "Bearer"
	TokenIssuer   = "Public"
	TokenSubject  = "Access Token"
	TokenAudience = "Public Client"
	TokenTTL      = time.Hour
)

const (
	verifyMailSubject  = "Email Verification"
	verifyMailTemplate = "auth/verify-mail"
)

// errVerifyFailed does not say whether the email or the code was wrong.
var errVerifyFailed = &domain.Error{Kind: domain.ErrUnauthorized, Message: "Verify email has been failed..!"}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) error
	Verify(ctx context.Context, req domain.VerifyRequest) error
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AccessToken, error)
}

type accountStore interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.AccountTx) error) error
	// FindByEmailAndCode ignores soft-deleted accounts and returns domain.ErrNotFound on a miss.
	FindByEmailAndCode(ctx context.Context, email, code string) (*domain.User, error)
	Save(ctx context.Context, u *domain.User) error
}

type userCreator interface {
	Create(ctx context.Context, tx domain.AccountTx, req domain.RegisterRequest) (*domain.User, error)
}

type mailSender interface {
	Send(ctx context.Context, m domain.Mail) error
}

type authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Principal, error)
}

type tokenIssuer interface {
	Sign(cs domain.ClaimSet) (string, error)
}

type service struct {
	accounts  accountStore
	users     userCreator
	mailer    mailSender
	auth      authenticator
	tokens    tokenIssuer
	adminMail string
	now       func() time.Time
	newCode   func() (string, error)
}

type ServiceDeps struct {
	AccountRepo   accountStore
	UserCreator   userCreator
	Mailer        mailSender
	Authenticator authenticator
	TokenIssuer   tokenIssuer
	// AdminMail is the sender address of verification mails.
	AdminMail string
	// Now and NewCode default to time.Now and a 6-character code generator.
	Now     func() time.Time
	NewCode func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		accounts:  deps.AccountRepo,
		users:     deps.UserCreator,
		mailer:    deps.Mailer,
		auth:      deps.Authenticator,
		tokens:    deps.TokenIssuer,
		adminMail: deps.AdminMail,
		now:       deps.Now,
		newCode:   deps.NewCode,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newCode == nil {
		s.newCode = func() (string, error) { return code.New(code.DefaultLength) }
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) error {
	var (
		created      *domain.User
		verification string
	)
	err := s.accounts.RunInTx(ctx, func(ctx context.Context, tx domain.AccountTx) error {
		u, err := s.users.Create(ctx, tx, req)
		if err != nil {
			return err
		}
		c, err := s.newCode()
		if err != nil {
			return err
		}
		if err := tx.SetVerificationCode(ctx, u.Username, c); err != nil {
			return err
		}
		created, verification = u, c
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("account registered", "user_id", created.UserID, "username", created.Username)

	err = s.mailer.Send(ctx, domain.Mail{
		Subject:  verifyMailSubject,
		Sender:   s.adminMail,
		Receiver: created.Email,
		Template: verifyMailTemplate,
		Data:     verification,
	})
	if err != nil {
		slog.Error("verification mail not sent", "user_id", created.UserID, "err", err)
		if errors.Is(err, domain.ErrMailDelivery) {
			return err
		}
		return fmt.Errorf("send verification mail: %w: %v", domain.ErrMailDelivery, err)
	}
	return nil
}

func (s *service) Verify(ctx context.Context, req domain.VerifyRequest) error {
	email := domain.NormalizeEmail(req.Email)
	u, err := s.accounts.FindByEmailAndCode(ctx, email, req.VerifiedCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errVerifyFailed
		}
		return err
	}
	u.IsVerified = true
	u.VerificationCode = ""
	u.UpdatedAt = s.now().UTC()
	if err := s.accounts.Save(ctx, u); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errVerifyFailed
		}
		return err
	}
	slog.Info("email verified", "user_id", u.UserID)
	return nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AccessToken, error) {
	p, err := s.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	slog.Info("user authenticated", "principal", p.ID, "authorities", p.Authorities)

	now := s.now()
	token, err := s.tokens.Sign(domain.ClaimSet{
		ID:        p.ID,
		Issuer:    TokenIssuer,
		Subject:   TokenSubject,
		Audience:  []string{TokenAudience},
		IssuedAt:  now,
		ExpiresAt: now.Add(TokenTTL),
		Scope:     strings.Join(p.Authorities, " "),
	})
	if err != nil {
		return nil, err
	}
	return &domain.AccessToken{Type: TokenType, AccessToken: token}, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	engine "github.com/mobile-money-ledger/internal/ledger_engine/service"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	uow         engine.UnitOfWork
	accountRepo account.Repository
	secrets     SecretHasher
	tokens      TokenIssuer
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	logger *slog.Logger,
	uow engine.UnitOfWork,
	accountRepo account.Repository,
	secrets SecretHasher,
	tokens TokenIssuer,
) AccountService {
	return &AccountServiceImpl{
		uow:         uow,
		accountRepo: accountRepo,
		secrets:     secrets,
		tokens:      tokens,
		logger:      logger,
	}
}

// Register creates the account and raises the admin's total money by its
// opening balance in the same unit of work.
func (s *AccountServiceImpl) Register(ctx context.Context, req RegisterRequest) (*account.Account, error) {
	if req.Secret == "" {
		return nil, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, "secret is required")
	}

	acc, err := account.NewAccount(req.Name, req.Email, req.Phone, req.Role, "")
	if err != nil {
		return nil, shared.WrapError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, err.Error(), err)
	}

	acc.SecretHash, err = s.secrets.Hash(req.Secret)
	if err != nil {
		return nil, shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "failed to register account", err)
	}

	err = s.uow.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.accountRepo.WithTx(tx)
		if acc.Role == account.RoleAdmin {
			return s.registerAdmin(ctx, repo, acc)
		}
		return s.registerParty(ctx, repo, acc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account registered",
		"account_id", acc.ID.String(),
		"role", string(acc.Role),
		"opening_balance", acc.Balance.String(),
	)
	return acc, nil
}

func (s *AccountServiceImpl) registerAdmin(ctx context.Context, repo account.Repository, acc *account.Account) error {
	_, err := repo.GetAdmin(ctx)
	switch {
	case err == nil:
		return shared.NewError(shared.KindConflict, shared.FailureReasonAdminExists, "an admin account already exists")
	case !errors.As(err, new(account.ErrAdminNotFound)):
		return err
	}
	return create(ctx, repo, acc)
}

func (s *AccountServiceImpl) registerParty(ctx context.Context, repo account.Repository, acc *account.Account) error {
	admin, err := repo.GetAdmin(ctx)
	if err != nil {
		if errors.As(err, new(account.ErrAdminNotFound)) {
			return shared.WrapError(shared.KindInternal, shared.FailureReasonAdminMissing, "admin account is not configured", err)
		}
		return err
	}

	locked, err := repo.LockForUpdate(ctx, []uuid.UUID{admin.ID})
	if err != nil {
		return err
	}
	admin, ok := locked[admin.ID]
	if !ok {
		return shared.NewError(shared.KindInternal, shared.FailureReasonAdminMissing, "admin account is not configured")
	}

	if err := create(ctx, repo, acc); err != nil {
		return err
	}

	if !acc.Balance.IsPositive() {
		return nil
	}
	admin.AdjustTotalMoney(acc.Balance)
	return repo.UpdateFunds(ctx, admin)
}

func create(ctx context.Context, repo account.Repository, acc *account.Account) error {
	err := repo.Create(ctx, acc)
	var dup account.ErrDuplicateAccount
	if errors.As(err, &dup) {
		if dup.Field == "admin role" {
			return shared.WrapError(shared.KindConflict, shared.FailureReasonAdminExists, "an admin account already exists", err)
		}
		return shared.WrapError(shared.KindConflict, shared.FailureReasonDuplicateAccount, dup.Error(), err)
	}
	return err
}

// Login reports unknown phones and wrong secrets the same way
func (s *AccountServiceImpl) Login(ctx context.Context, phone, secret string) (*Session, error) {
	invalid := shared.NewError(shared.KindUnauthorized, shared.FailureReasonInvalidCredentials, "invalid phone or secret")

	acc, err := s.accountRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.As(err, new(account.ErrAccountNotFound)) {
			return nil, invalid
		}
		return nil, shared.AsError(err)
	}

	if err := s.secrets.Verify(acc.SecretHash, secret); err != nil {
		if shared.KindOf(err) == shared.KindUnauthorized {
			return nil, invalid
		}
		return nil, shared.AsError(err)
	}

	if err := checkStanding(acc); err != nil {
		s.logger.Warn("Login refused", "account_id", acc.ID.String(), "reason", err.Reason)
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(acc)
	if err != nil {
		return nil, shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "failed to issue token", err)
	}

	s.logger.Info("Login succeeded", "account_id", acc.ID.String(), "role", string(acc.Role))
	return &Session{Token: token, ExpiresAt: expiresAt, Account: acc}, nil
}

func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, accountError(err)
	}
	return acc, nil
}

func (s *AccountServiceImpl) PendingApprovals(ctx context.Context, page, perPage int) ([]*account.Account, int64, error) {
	pending, err := s.accountRepo.ListPendingAgents(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}

	total, err := s.accountRepo.CountPendingAgents(ctx)
	if err != nil {
		return nil, 0, shared.AsError(err)
	}

	return pending, total, nil
}

func (s *AccountServiceImpl) Approve(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.IsVerified {
		return nil, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, "account is already approved")
	}

	if err := s.accountRepo.SetVerified(ctx, id, true); err != nil {
		return nil, accountError(err)
	}
	acc.IsVerified = true
	acc.Version++

	s.logger.Info("Account approved", "account_id", id.String(), "role", string(acc.Role))
	return acc, nil
}

func (s *AccountServiceImpl) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*account.Account, error) {
	acc, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.Role == account.RoleAdmin {
		return nil, shared.NewError(shared.KindForbidden, shared.FailureReasonRoleNotAllowed, "the admin account cannot be blocked")
	}
	if acc.IsBlocked == blocked {
		return acc, nil
	}

	if err := s.accountRepo.SetBlocked(ctx, id, blocked); err != nil {
		return nil, accountError(err)
	}
	acc.IsBlocked = blocked
	acc.Version++

	s.logger.Info("Account block status changed", "account_id", id.String(), "blocked", blocked)
	return acc, nil
}

// checkStanding refuses blocked accounts first, then unverified ones
func checkStanding(acc *account.Account) *shared.Error {
	if acc.IsBlocked {
		return shared.NewError(shared.KindForbidden, shared.FailureReasonAccountBlocked, "account is blocked")
	}
	if !acc.IsVerified {
		return shared.NewError(shared.KindForbidden, shared.FailureReasonAccountNotVerified, "account is awaiting approval")
	}
	return nil
}

func accountError(err error) *shared.Error {
	if errors.As(err, new(account.ErrAccountNotFound)) {
		return shared.WrapError(shared.KindNotFound, shared.FailureReasonAccountNotFound, "account not found", err)
	}
	return shared.AsError(err)
}

package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mobile-money-ledger/internal/domain/account"
	"github.com/mobile-money-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Command is one typed request to the ledger engine. Each operation has its own
// variant carrying exactly the fields that operation needs.
type Command interface {
	Type() shared.TransactionType
	Params() Params
	Validate() error
}

// Params is the operation-independent view the engine works on
type Params struct {
	SourceID          uuid.UUID
	CounterpartyPhone string
	Amount            decimal.Decimal
	Secret            string
	CorrelationID     string
}

// DepositCommand moves e-money from an agent to a user
type DepositCommand struct {
	SourceID       uuid.UUID       `json:"-" validate:"required"`
	RecipientPhone string          `json:"recipient_phone" validate:"required,phone"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	Secret         string          `json:"secret" validate:"required"`
	CorrelationID  string          `json:"-"`
}

// TransferCommand moves funds between two users
type TransferCommand struct {
	SourceID       uuid.UUID       `json:"-" validate:"required"`
	RecipientPhone string          `json:"recipient_phone" validate:"required,phone"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	Secret         string          `json:"secret" validate:"required"`
	CorrelationID  string          `json:"-"`
}

// WithdrawCommand cashes out a user's funds through an agent
type WithdrawCommand struct {
	SourceID      uuid.UUID       `json:"-" validate:"required"`
	AgentPhone    string          `json:"agent_phone" validate:"required,phone"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Secret        string          `json:"secret" validate:"required"`
	CorrelationID string          `json:"-"`
}

func (DepositCommand) Type() shared.TransactionType  { return shared.TransactionTypeDeposit }
func (TransferCommand) Type() shared.TransactionType { return shared.TransactionTypeTransfer }
func (WithdrawCommand) Type() shared.TransactionType { return shared.TransactionTypeWithdraw }

func (c DepositCommand) Params() Params {
	return Params{c.SourceID, c.RecipientPhone, c.Amount, c.Secret, c.CorrelationID}
}

func (c TransferCommand) Params() Params {
	return Params{c.SourceID, c.RecipientPhone, c.Amount, c.Secret, c.CorrelationID}
}

func (c WithdrawCommand) Params() Params {
	return Params{c.SourceID, c.AgentPhone, c.Amount, c.Secret, c.CorrelationID}
}

func (c DepositCommand) Validate() error  { return validateCommand(c) }
func (c TransferCommand) Validate() error { return validateCommand(c) }
func (c WithdrawCommand) Validate() error { return validateCommand(c) }

var commandValidator = newCommandValidator()

func newCommandValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return account.ValidPhone(fl.Field().String())
	})
	return v
}

func validateCommand(c Command) error {
	err := commandValidator.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return shared.WrapError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, "invalid request", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "phone":
		return fmt.Sprintf("%s must be exactly 10 digits", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// DecodeCommand builds the variant named by t from a JSON body. Fields that
// belong to another variant are rejected rather than ignored.
func DecodeCommand(t shared.TransactionType, sourceID uuid.UUID, correlationID string, body []byte) (Command, error) {
	var cmd Command
	switch t {
	case shared.TransactionTypeDeposit:
		var c DepositCommand
		if err := decodeStrict(body, &c); err != nil {
			return nil, err
		}
		c.SourceID, c.CorrelationID = sourceID, correlationID
		cmd = c
	case shared.TransactionTypeTransfer:
		var c TransferCommand
		if err := decodeStrict(body, &c); err != nil {
			return nil, err
		}
		c.SourceID, c.CorrelationID = sourceID, correlationID
		cmd = c
	case shared.TransactionTypeWithdraw:
		var c WithdrawCommand
		if err := decodeStrict(body, &c); err != nil {
			return nil, err
		}
		c.SourceID, c.CorrelationID = sourceID, correlationID
		cmd = c
	default:
		return nil, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidTransactionType,
			fmt.Sprintf("unknown transaction type %q", t))
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return shared.WrapError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, "malformed request body", err)
	}
	return nil
}

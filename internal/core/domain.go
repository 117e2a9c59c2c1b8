package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Cash         PaymentMethod = "Cash"
	DebitCard    PaymentMethod = "Debit Card"
	CreditCard   PaymentMethod = "Credit Card"
	BankTransfer PaymentMethod = "Bank Transfer"
	Wallet       PaymentMethod = "Wallet"
)

const (
	// IDPrefix starts every transaction id.
	IDPrefix = "T"

	MinCategoryLen = 1
	MaxCategoryLen = 40
)

// PaymentMethods is the closed set of accepted payment methods.
var PaymentMethods = []PaymentMethod{Cash, DebitCard, CreditCard, BankTransfer, Wallet}

type (
	Kind          string
	PaymentMethod string

	Transaction struct {
		ID            string
		OwnerID       string
		Kind          Kind
		Amount        Money
		Category      string
		OccurredOn    Date
		Description   string
		PaymentMethod PaymentMethod
	}

	// TransactionInput carries raw text as entered by a user, read from an
	// import file or taken from a recurrence template.
	TransactionInput struct {
		Kind          string
		Amount        string
		Category      string
		Date          string
		Description   string
		PaymentMethod string
	}

	// ImportKey identifies "the same event" when merging external batches.
	ImportKey struct {
		OccurredOn  string
		Amount      string
		Description string
	}

	// PostingKey identifies "the same event" when posting recurrences.
	PostingKey struct {
		OccurredOn  string
		Amount      string
		Description string
		Category    string
		Kind        Kind
	}
)

// ParseKind normalizes and validates a transaction kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return Invalid("kind", ErrInvalidKind, "kind must be income or expense")
	}
}

// ParsePaymentMethod validates a payment method against the closed set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.TrimSpace(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

func (m PaymentMethod) Validate() error {
	for _, known := range PaymentMethods {
		if m == known {
			return nil
		}
	}
	return Invalid("payment_method", ErrInvalidPaymentMethod,
		fmt.Sprintf("payment method must be one of %v", PaymentMethods))
}

// ValidateCategory trims a category label and checks its length.
func ValidateCategory(s string) (string, error) {
	v := strings.TrimSpace(s)
	n := utf8.RuneCountInString(v)
	if n < MinCategoryLen || n > MaxCategoryLen {
		return "", Invalid("category", ErrInvalidCategory,
			fmt.Sprintf("category length must be %d..%d characters", MinCategoryLen, MaxCategoryLen))
	}
	return v, nil
}

// FormatID renders the n-th transaction id.
func FormatID(n int) string {
	return fmt.Sprintf("%s%06d", IDPrefix, n)
}

// ParseIDNumber returns the numeric suffix of an id of the form T<digits>.
func ParseIDNumber(id string) (int, bool) {
	digits, ok := strings.CutPrefix(id, IDPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NewTransaction is the single creation path for records: manual entry,
// imports and recurrence posting all validate through it. The returned
// record has no id; the ledger store assigns one on append.
func NewTransaction(owner string, in TransactionInput) (Transaction, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Transaction{}, Invalid("owner_id", ErrMissingOwner, "missing owner id")
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return Transaction{}, err
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	category, err := ValidateCategory(in.Category)
	if err != nil {
		return Transaction{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Transaction{}, err
	}
	method, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		OwnerID:       owner,
		Kind:          kind,
		Amount:        amount,
		Category:      category,
		OccurredOn:    date,
		Description:   strings.TrimSpace(in.Description),
		PaymentMethod: method,
	}, nil
}

// Input returns the record as raw text, the inverse of NewTransaction.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Kind:          string(t.Kind),
		Amount:        t.Amount.String(),
		Category:      t.Category,
		Date:          t.OccurredOn.String(),
		Description:   t.Description,
		PaymentMethod: string(t.PaymentMethod),
	}
}

// Validate checks a fully built record before it is written.
func (t Transaction) Validate() error {
	if t.ID != "" {
		if _, ok := ParseIDNumber(t.ID); !ok {
			return Invalid("transaction_id", ErrInvalidID, "transaction id must look like T000001")
		}
	}
	if strings.TrimSpace(t.OwnerID) == "" {
		return Invalid("owner_id", ErrMissingOwner, "missing owner id")
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if c, err := ValidateCategory(t.Category); err != nil {
		return err
	} else if c != t.Category {
		return Invalid("category", ErrInvalidCategory, "category has surrounding whitespace")
	}
	if err := t.OccurredOn.Validate(); err != nil {
		return err
	}
	return t.PaymentMethod.Validate()
}

func (t Transaction) ImportKey() ImportKey {
	return ImportKey{
		OccurredOn:  t.OccurredOn.String(),
		Amount:      t.Amount.String(),
		Description: t.Description,
	}
}

func (t Transaction) PostingKey() PostingKey {
	return PostingKey{
		OccurredOn:  t.OccurredOn.String(),
		Amount:      t.Amount.String(),
		Description: t.Description,
		Category:    t.Category,
		Kind:        t.Kind,
	}
}

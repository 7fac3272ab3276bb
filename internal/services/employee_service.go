package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/repositories"
)

var (
	// ErrEmployeeNotFound indicates the staff record does not exist.
	ErrEmployeeNotFound = errors.New("employees: employee not found")
	// ErrEmployeeInvalidInput signals invalid caller arguments.
	ErrEmployeeInvalidInput = errors.New("employees: invalid input")
	// ErrInvalidPasscode rejects a sign-in with a wrong passcode.
	ErrInvalidPasscode = errors.New("employees: invalid passcode")
	// ErrEmployeeUnavailable indicates the backing store is unreachable.
	ErrEmployeeUnavailable = errors.New("employees: store unavailable")
)

// Register passcodes are short numeric PINs keyed in on a touchscreen.
const (
	minPasscodeLength = 4
	maxPasscodeLength = 8
)

// EmployeeServiceDeps bundles the collaborators for the employee service.
type EmployeeServiceDeps struct {
	Employees repositories.EmployeeRepository
	Sessions  SessionIssuer
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type employeeService struct {
	employees repositories.EmployeeRepository
	sessions  SessionIssuer
	logger    func(context.Context, string, map[string]any)
}

// NewEmployeeService wires dependencies into an EmployeeService.
func NewEmployeeService(deps EmployeeServiceDeps) (EmployeeService, error) {
	if deps.Employees == nil {
		return nil, errors.New("employee service: employee repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &employeeService{
		employees: deps.Employees,
		sessions:  deps.Sessions,
		logger:    logger,
	}, nil
}

func (s *employeeService) List(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return employees, nil
}

func (s *employeeService) Get(ctx context.Context, id int) (domain.Employee, error) {
	if id <= 0 {
		return domain.Employee{}, fmt.Errorf("%w: employee id is required", ErrEmployeeInvalidInput)
	}
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return domain.Employee{}, s.mapError(err)
	}
	return employee, nil
}

func (s *employeeService) Create(ctx context.Context, cmd EmployeeCommand) (domain.Employee, error) {
	employee, err := buildEmployee(cmd)
	if err != nil {
		return domain.Employee{}, err
	}
	if err := validatePasscode(cmd.Passcode); err != nil {
		return domain.Employee{}, err
	}
	hash, err := hashPasscode(cmd.Passcode)
	if err != nil {
		return domain.Employee{}, err
	}

	created, err := s.employees.Insert(ctx, employee, hash)
	if err != nil {
		return domain.Employee{}, s.mapError(err)
	}
	s.logger(ctx, "employees.created", map[string]any{"employee_id": created.ID, "position": created.Position})
	return created, nil
}

func (s *employeeService) Update(ctx context.Context, id int, cmd EmployeeCommand) (domain.Employee, error) {
	if id <= 0 {
		return domain.Employee{}, fmt.Errorf("%w: employee id is required", ErrEmployeeInvalidInput)
	}
	employee, err := buildEmployee(cmd)
	if err != nil {
		return domain.Employee{}, err
	}
	employee.ID = id

	updated, err := s.employees.Update(ctx, employee)
	if err != nil {
		return domain.Employee{}, s.mapError(err)
	}

	if cmd.Passcode != "" {
		if err := validatePasscode(cmd.Passcode); err != nil {
			return domain.Employee{}, err
		}
		hash, err := hashPasscode(cmd.Passcode)
		if err != nil {
			return domain.Employee{}, err
		}
		if err := s.employees.UpdatePasscode(ctx, id, hash); err != nil {
			return domain.Employee{}, s.mapError(err)
		}
	}
	return updated, nil
}

func (s *employeeService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: employee id is required", ErrEmployeeInvalidInput)
	}
	if _, err := s.employees.FindByID(ctx, id); err != nil {
		return s.mapError(err)
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		return s.mapError(err)
	}
	s.logger(ctx, "employees.deleted", map[string]any{"employee_id": id})
	return nil
}

func (s *employeeService) SignIn(ctx context.Context, id int, passcode string) (SignInResult, error) {
	if s.sessions == nil {
		return SignInResult{}, errors.New("employee service: session issuer not configured")
	}
	if id <= 0 {
		return SignInResult{}, fmt.Errorf("%w: employee id is required", ErrEmployeeInvalidInput)
	}
	if passcode == "" {
		return SignInResult{}, fmt.Errorf("%w: passcode is required", ErrEmployeeInvalidInput)
	}

	creds, err := s.employees.FindCredentials(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			// Indistinguishable from a wrong passcode on purpose.
			return SignInResult{}, ErrInvalidPasscode
		}
		return SignInResult{}, s.mapError(err)
	}
	if !verifyPasscode(creds.PasscodeHash, passcode) {
		s.logger(ctx, "employees.sign_in_rejected", map[string]any{"employee_id": id})
		return SignInResult{}, ErrInvalidPasscode
	}

	token, expiresAt, err := s.sessions.IssueSession(creds.Employee.ID, creds.Employee.Name, roleForPosition(creds.Employee.Position))
	if err != nil {
		return SignInResult{}, fmt.Errorf("employee service: issue session: %w", err)
	}

	s.logger(ctx, "employees.signed_in", map[string]any{"employee_id": id})
	return SignInResult{Employee: creds.Employee, Token: token, ExpiresAt: expiresAt}, nil
}

func buildEmployee(cmd EmployeeCommand) (domain.Employee, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Employee{}, fmt.Errorf("%w: name is required", ErrEmployeeInvalidInput)
	}
	position := strings.TrimSpace(cmd.Position)
	if position != domain.PositionCashier && position != domain.PositionManager {
		return domain.Employee{}, fmt.Errorf("%w: unknown position %q", ErrEmployeeInvalidInput, cmd.Position)
	}
	return domain.Employee{Name: name, Position: position}, nil
}

func validatePasscode(passcode string) error {
	if len(passcode) < minPasscodeLength || len(passcode) > maxPasscodeLength {
		return fmt.Errorf("%w: passcode must be %d-%d digits", ErrEmployeeInvalidInput, minPasscodeLength, maxPasscodeLength)
	}
	for _, r := range passcode {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: passcode must be numeric", ErrEmployeeInvalidInput)
		}
	}
	return nil
}

func hashPasscode(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("employee service: hash passcode: %w", err)
	}
	return string(hash), nil
}

func verifyPasscode(stored, passcode string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(passcode)) == nil
}

func roleForPosition(position string) string {
	if position == domain.PositionManager {
		return "manager"
	}
	return "cashier"
}

func (s *employeeService) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return ErrEmployeeNotFound
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrEmployeeUnavailable, err)
	default:
		return err
	}
}

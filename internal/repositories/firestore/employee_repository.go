package firestore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/pearlpos/api/internal/domain"
	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
	"github.com/pearlpos/api/internal/repositories"
)

const (
	employeesCollection = "employees"
	employeeSequence    = "employees"
)

// EmployeeRepository persists staff records in Firestore.
type EmployeeRepository struct {
	provider  *pfirestore.Provider
	employees *pfirestore.Collection[employeeDocument]
	ids       *idAllocator
}

// NewEmployeeRepository constructs a Firestore-backed EmployeeRepository.
func NewEmployeeRepository(provider *pfirestore.Provider) (*EmployeeRepository, error) {
	if provider == nil {
		return nil, errors.New("employee repository requires firestore provider")
	}
	return &EmployeeRepository{
		provider:  provider,
		employees: pfirestore.NewCollection[employeeDocument](provider, employeesCollection, nil),
		ids:       newIDAllocator(provider),
	}, nil
}

// Insert stores a new employee, assigning the next numeric ID.
func (r *EmployeeRepository) Insert(ctx context.Context, employee domain.Employee, passcodeHash string) (domain.Employee, error) {
	if r == nil || r.employees == nil {
		return domain.Employee{}, errors.New("employee repository not initialised")
	}
	if strings.TrimSpace(passcodeHash) == "" {
		return domain.Employee{}, errors.New("employee insert: passcode hash is required")
	}

	id, err := r.ids.next(ctx, employeeSequence)
	if err != nil {
		return domain.Employee{}, err
	}
	employee.ID = id

	doc := newEmployeeDocument(employee, passcodeHash, time.Now().UTC())
	if _, err := r.employees.Create(ctx, strconv.Itoa(id), doc); err != nil {
		return domain.Employee{}, err
	}
	return doc.toDomain(id), nil
}

// Update rewrites the employee's name and position, keeping the passcode.
func (r *EmployeeRepository) Update(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	if r == nil || r.employees == nil {
		return domain.Employee{}, errors.New("employee repository not initialised")
	}
	if employee.ID <= 0 {
		return domain.Employee{}, errors.New("employee update: employee id is required")
	}

	_, err := r.employees.Update(ctx, strconv.Itoa(employee.ID), []firestore.Update{
		{Path: "name", Value: strings.TrimSpace(employee.Name)},
		{Path: "position", Value: strings.TrimSpace(employee.Position)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		return domain.Employee{}, err
	}
	return r.FindByID(ctx, employee.ID)
}

// UpdatePasscode replaces the stored passcode hash.
func (r *EmployeeRepository) UpdatePasscode(ctx context.Context, id int, passcodeHash string) error {
	if r == nil || r.employees == nil {
		return errors.New("employee repository not initialised")
	}
	if id <= 0 {
		return errors.New("employee passcode: employee id is required")
	}
	if strings.TrimSpace(passcodeHash) == "" {
		return errors.New("employee passcode: hash is required")
	}

	_, err := r.employees.Update(ctx, strconv.Itoa(id), []firestore.Update{
		{Path: "passcodeHash", Value: passcodeHash},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// Delete removes the employee record.
func (r *EmployeeRepository) Delete(ctx context.Context, id int) error {
	if r == nil || r.employees == nil {
		return errors.New("employee repository not initialised")
	}
	if id <= 0 {
		return errors.New("employee delete: employee id is required")
	}
	return r.employees.Delete(ctx, strconv.Itoa(id))
}

// FindByID fetches one employee without credentials.
func (r *EmployeeRepository) FindByID(ctx context.Context, id int) (domain.Employee, error) {
	if r == nil || r.employees == nil {
		return domain.Employee{}, errors.New("employee repository not initialised")
	}
	doc, err := r.employees.Get(ctx, strconv.Itoa(id))
	if err != nil {
		return domain.Employee{}, err
	}
	return doc.Data.toDomain(id), nil
}

// FindCredentials fetches an employee together with the stored passcode hash.
func (r *EmployeeRepository) FindCredentials(ctx context.Context, id int) (repositories.EmployeeCredentials, error) {
	if r == nil || r.employees == nil {
		return repositories.EmployeeCredentials{}, errors.New("employee repository not initialised")
	}
	doc, err := r.employees.Get(ctx, strconv.Itoa(id))
	if err != nil {
		return repositories.EmployeeCredentials{}, err
	}
	return repositories.EmployeeCredentials{
		Employee:     doc.Data.toDomain(id),
		PasscodeHash: doc.Data.PasscodeHash,
	}, nil
}

// List returns every employee ordered by ID.
func (r *EmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	if r == nil || r.employees == nil {
		return nil, errors.New("employee repository not initialised")
	}
	docs, err := r.employees.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("id", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	employees := make([]domain.Employee, 0, len(docs))
	for _, doc := range docs {
		employees = append(employees, doc.Data.toDomain(doc.Data.ID))
	}
	return employees, nil
}

// ListByPosition returns employees holding the given position, ordered by ID.
func (r *EmployeeRepository) ListByPosition(ctx context.Context, position string) ([]domain.Employee, error) {
	if r == nil || r.employees == nil {
		return nil, errors.New("employee repository not initialised")
	}
	position = strings.TrimSpace(position)
	if position == "" {
		return nil, errors.New("employee list: position is required")
	}

	docs, err := r.employees.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("position", "==", position).OrderBy("id", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	employees := make([]domain.Employee, 0, len(docs))
	for _, doc := range docs {
		employees = append(employees, doc.Data.toDomain(doc.Data.ID))
	}
	return employees, nil
}

type employeeDocument struct {
	ID           int       `firestore:"id"`
	Name         string    `firestore:"name"`
	Position     string    `firestore:"position"`
	PasscodeHash string    `firestore:"passcodeHash"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func newEmployeeDocument(employee domain.Employee, passcodeHash string, now time.Time) employeeDocument {
	return employeeDocument{
		ID:           employee.ID,
		Name:         strings.TrimSpace(employee.Name),
		Position:     strings.TrimSpace(employee.Position),
		PasscodeHash: passcodeHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (d employeeDocument) toDomain(id int) domain.Employee {
	return domain.Employee{
		ID:       id,
		Name:     d.Name,
		Position: d.Position,
	}
}

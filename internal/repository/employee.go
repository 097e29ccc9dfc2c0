package repository

import (
	"context"

	"dentalclinic/internal/model"
)

// EmployeeRepository persists staff, their specializations and shifts.
type EmployeeRepository interface {
	// Create inserts the optional account, the employee and its specializations in one
	// transaction, then assigns the employee code from the generated id.
	Create(ctx context.Context, e *model.Employee, acct *model.Account, specializationIDs []int) (*model.Employee, error)
	FindByCode(ctx context.Context, code string) (*model.Employee, error)
	FindByID(ctx context.Context, id int) (*model.Employee, error)
	FindByUsername(ctx context.Context, username string) (*model.Employee, error)
	List(ctx context.Context, pq PageQuery, activeOnly bool) (*PageResult[model.Employee], error)
	Deactivate(ctx context.Context, id int) error
	PhoneExists(ctx context.Context, phone string) (bool, error)

	FindSpecializationsByCodes(ctx context.Context, codes []string) ([]model.Specialization, error)

	AddShift(ctx context.Context, s *model.Shift) (*model.Shift, error)
	ListShifts(ctx context.Context, employeeID int, from, to model.Date) ([]model.Shift, error)
	// DeleteShift returns sql.ErrNoRows when the shift does not belong to the employee.
	DeleteShift(ctx context.Context, employeeID, shiftID int) error
}

package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/internal/metrics"
	"github.com/mindlabs/gomarket/pkg/addr"
)

// ProjectAddress derives the record address for (owner, id).
func ProjectAddress(owner addr.Address, id uint64) addr.Address {
	return addr.DeriveU64("project", owner.Bytes(), id)
}

// TreasuryAddress derives a project's treasury sub-account.
func TreasuryAddress(project addr.Address) addr.Address {
	return addr.Derive("treasury", project.Bytes())
}

func getProjectTx(ctx context.Context, tx querier, project addr.Address) (*domain.Project, error) {
	row := tx.QueryRowContext(ctx, `
SELECT address, project_id, owner, name, description, operators_json, treasury, created_at
FROM projects WHERE address=?
`, project.String())
	var (
		p                              domain.Project
		address, owner, operatorsJSON  string
		treasury, created              string
		projectID                      int64
	)
	err := row.Scan(&address, &projectID, &owner, &p.Name, &p.Description, &operatorsJSON, &treasury, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}
	p.ID = uint64(projectID)
	if p.Address, err = addr.Parse(address); err != nil {
		return nil, err
	}
	if p.Owner, err = addr.Parse(owner); err != nil {
		return nil, err
	}
	if p.Treasury, err = addr.Parse(treasury); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(operatorsJSON), &p.Operators); err != nil {
		return nil, fmt.Errorf("decode operators: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &p, nil
}

// CreateProject registers a tenant project. The owner pays the
// CreateProject fee into the protocol treasury plus the rent for the
// project record and its fresh treasury sub-account.
func (e *Engine) CreateProject(ctx context.Context, owner addr.Address, id uint64, name, description string, operators []addr.Address) (*domain.Project, error) {
	if len(name) > domain.MaxProjectNameLen {
		return nil, domain.ErrNameTooLong
	}
	if len(description) > domain.MaxProjectDescriptionLen {
		return nil, domain.ErrDescriptionTooLong
	}
	if len(operators) > domain.MaxProjectOperators {
		return nil, domain.ErrTooManyOperators
	}

	project := &domain.Project{
		Address:     ProjectAddress(owner, id),
		ID:          id,
		Owner:       owner,
		Name:        name,
		Description: description,
		Operators:   operators,
	}
	project.Treasury = TreasuryAddress(project.Address)

	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		if _, err := getProjectTx(ctx, tx, project.Address); err == nil {
			return domain.ErrProjectExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := payProtocolFeeTx(ctx, tx, cfg, owner, domain.OpCreateProject, nil); err != nil {
			return err
		}

		project.CreatedAt = e.now().UTC()
		operatorsJSON, err := json.Marshal(project.Operators)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO projects (address, project_id, owner, name, description, operators_json, treasury, created_at)
VALUES (?,?,?,?,?,?,?,?)
`, project.Address.String(), int64(project.ID), owner.String(), name, description,
			string(operatorsJSON), project.Treasury.String(),
			project.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		if err := openRecordAccountTx(ctx, tx, owner, project.Address, domain.ProjectRecordSize); err != nil {
			return err
		}
		// treasury top-up is a separate transfer from the owner, not part
		// of the fee
		if err := openRecordAccountTx(ctx, tx, owner, project.Treasury, domain.SystemAccountSize); err != nil {
			return err
		}

		ev.add(events.TypeProjectCreated, map[string]string{
			"project":  project.Address.String(),
			"owner":    owner.String(),
			"treasury": project.Treasury.String(),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return nil, err
	}
	metrics.ProjectsCreated.Add(1)
	log.WithField("project", project.Address.String()).Info("project created")
	return project, nil
}

// WithdrawProjectFees moves funds out of the project treasury. Owner
// only; the treasury keeps at least its rent reserve.
func (e *Engine) WithdrawProjectFees(ctx context.Context, caller, project addr.Address, amount uint64, destination addr.Address) error {
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		p, err := getProjectTx(ctx, tx, project)
		if err != nil {
			return err
		}
		if caller != p.Owner {
			return domain.ErrUnauthorized
		}
		if err := transferTx(ctx, tx, p.Treasury, destination, amount); err != nil {
			return err
		}
		ev.add(events.TypeFeesWithdrawn, map[string]string{
			"treasury": p.Treasury.String(),
			"to":       destination.String(),
			"amount":   strconv.FormatUint(amount, 10),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return err
	}
	metrics.FeeWithdrawals.Add(1)
	return nil
}

func (e *Engine) GetProject(ctx context.Context, project addr.Address) (*domain.Project, error) {
	return getProjectTx(ctx, e.db, project)
}

package main

import (
	"context"

	"github.com/garyjia/payroll-console/internal/app"
	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/fetcher"
)

// loaded is one interactive load of the logged-in role's data
type loaded struct {
	ws   *app.Workspace
	snap *fetcher.Snapshot
}

func (c *cli) load(ctx context.Context) (*loaded, error) {
	if _, err := c.app.RequireSession(ctx); err != nil {
		return nil, failed("checking the session", err)
	}
	ws, err := c.app.OpenWorkspace(false)
	if err != nil {
		return nil, err
	}
	snap, err := ws.Fetcher.Refresh(ctx, fetcher.ModeInteractive)
	if err != nil {
		return nil, failed("loading data", err)
	}
	return &loaded{ws: ws, snap: snap}, nil
}

func (l *loaded) view(f console.Filters) console.View {
	return console.BuildView(l.ws.Role, l.snap, nil, f)
}

func (l *loaded) expense(id int64) (*entity.ExpenseRequest, bool) {
	for i := range l.snap.Expenses {
		if l.snap.Expenses[i].ID == id {
			exp := l.snap.Expenses[i]
			return &exp, true
		}
	}
	return nil, false
}

func (l *loaded) slip(id int64) (*entity.SalarySlip, bool) {
	for i := range l.snap.SalarySlips {
		if l.snap.SalarySlips[i].ID == id {
			slip := l.snap.SalarySlips[i]
			return &slip, true
		}
	}
	return nil, false
}

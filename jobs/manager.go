package jobs

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine    *cron.Cron
	reconcile *StatsReconcileJob
	spec      string
}

func NewCronManager(reconcile *StatsReconcileJob, spec string) *Manager {
	if spec == "" {
		spec = "@every 10m"
	}
	return &Manager{
		engine:    cron.New(),
		reconcile: reconcile,
		spec:      spec,
	}
}

// RegisterJobs adds the scheduled jobs to the engine.
func (m *Manager) RegisterJobs() error {
	if _, err := m.engine.AddJob(m.spec, m.reconcile); err != nil {
		return err
	}
	return nil
}

func (m *Manager) Start() {
	slog.Info("cron engine started", "stats_reconcile", m.spec)
	m.engine.Start()
}

// Stop waits for running jobs to finish.
func (m *Manager) Stop() {
	slog.Info("cron engine stopping")
	<-m.engine.Stop().Done()
}

func InitCron(m *Manager) error {
	if err := m.RegisterJobs(); err != nil {
		return err
	}
	m.Start()
	return nil
}

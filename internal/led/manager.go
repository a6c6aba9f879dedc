package led

import (
	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/events"
	"github.com/smazurov/remotecam/internal/logging"
)

// Manager shows the capture phase on an LED: solid while running,
// blinking while the source resets, off when stopped.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	unsubscribe func()
	logger      logging.Logger
}

// NewManager creates a manager; call Start to follow phase changes.
func NewManager(controller Controller, eventBus *events.Bus, logger logging.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// Start subscribes to phase changes.
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.PhaseChangedEvent) {
		m.show(control.Phase(e.To))
	})
	m.logger.Info("LED manager started", "led", m.controller.Name())
}

// Stop unsubscribes and turns the LED off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if err := m.controller.Set(PatternOff); err != nil {
		m.logger.Warn("Failed to turn LED off", "error", err)
	}
}

func (m *Manager) show(phase control.Phase) {
	p := patternFor(phase)
	if err := m.controller.Set(p); err != nil {
		m.logger.Warn("Failed to set LED", "phase", phase, "pattern", p, "error", err)
		return
	}
	m.logger.Debug("LED updated", "phase", phase, "pattern", p)
}

func patternFor(phase control.Phase) Pattern {
	switch phase {
	case control.PhaseRunning:
		return PatternSolid
	case control.PhaseResetting:
		return PatternBlink
	default:
		return PatternOff
	}
}

package producer

import (
	"fmt"
	"math"

	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/events"
	"github.com/smazurov/remotecam/internal/frame"
	"github.com/smazurov/remotecam/internal/metrics"
)

// handle services one command and sends exactly one response.
func (p *Producer) handle(cmd Command) {
	resp := p.service(cmd)

	kind := "malformed"
	if cmd.Request != nil {
		kind = string(cmd.Request.Kind())
	}
	if resp.Success {
		p.logger.Debug("Control request serviced", "request", kind)
	} else {
		p.logger.Info("Control request rejected", "request", kind, "message", resp.Message)
	}

	if cmd.Respond != nil {
		cmd.Respond(resp)
	}

	metrics.RecordControlRequest(kind, resp.Success)
	p.publishEvent(events.ControlServicedEvent{
		Request:   kind,
		Success:   resp.Success,
		Message:   resp.Message,
		Timestamp: now(),
	})
}

func (p *Producer) service(cmd Command) control.Response {
	if cmd.Err != nil {
		return control.Failure(cmd.Err)
	}

	switch r := cmd.Request.(type) {
	case control.GetExposure:
		return control.ExposureResponse(p.getExposure())
	case control.SetExposure:
		if err := p.setExposure(r.Exposure); err != nil {
			return control.Failure(err)
		}
		return control.ExposureResponse(p.getExposure())
	case control.GetResolution:
		return control.ResolutionResponse(p.getResolution())
	case control.SetResolution:
		if err := p.setResolution(r.Resolution); err != nil {
			return control.Failure(err)
		}
		return control.ResolutionResponse(p.getResolution())
	case control.StartCapture:
		p.start()
		return control.PhaseResponse(p.state.phase)
	case control.StopCapture:
		p.stop()
		return control.PhaseResponse(p.state.phase)
	case control.GetStatus:
		return control.StatusResponse(p.status())
	default:
		// Unknown wire kinds fail in control.DecodeRequest and arrive as
		// cmd.Err; this only catches a Command built without a Request.
		return control.Failure(fmt.Errorf("%w: %T", control.ErrUnknownRequest, cmd.Request))
	}
}

// start resumes capture, reconfiguring the source first when it is not
// allocated at the current resolution.
func (p *Producer) start() {
	if p.state.phase != control.PhaseStopped {
		return
	}
	if p.allocated != p.state.resolution {
		p.setPhase(control.PhaseResetting)
		return
	}
	p.setPhase(control.PhaseRunning)
}

// stop pauses capture. A frame already captured in this iteration has been
// published before any command is serviced.
func (p *Producer) stop() {
	p.setPhase(control.PhaseStopped)
}

// setResolution records res; a running loop reconfigures the source at the
// next iteration. It never starts or stops capture.
func (p *Producer) setResolution(res frame.Resolution) error {
	if err := control.ValidateResolution(res, p.maxDim); err != nil {
		return err
	}
	changed := p.state.resolution != res
	p.state.resolution = res
	if p.state.phase == control.PhaseRunning && p.allocated != res {
		p.setPhase(control.PhaseResetting)
	}
	if changed {
		p.settingsChanged()
	}
	return nil
}

// setExposure applies ms at the source (0 = auto, otherwise ms×1000 µs).
// A source error leaves the state unchanged.
func (p *Producer) setExposure(ms float64) error {
	if err := control.ValidateExposure(ms); err != nil {
		return err
	}
	if err := p.src.SetShutterSpeed(shutterSpeed(ms)); err != nil {
		return fmt.Errorf("apply exposure %gms: %w", ms, err)
	}
	changed := p.state.exposure != ms
	p.state.exposure = ms
	if changed {
		p.settingsChanged()
	}
	return nil
}

func (p *Producer) getExposure() float64 {
	return p.state.exposure
}

func (p *Producer) getResolution() frame.Resolution {
	return p.state.resolution
}

func (p *Producer) status() control.Status {
	return control.Status{
		Phase:      p.state.phase,
		Resolution: p.state.resolution,
		Exposure:   p.state.exposure,
	}
}

func (p *Producer) settingsChanged() {
	p.logger.Info("Camera settings changed", "exposure_ms", p.state.exposure, "resolution", p.state.resolution.String())
	p.publishEvent(events.SettingsChangedEvent{
		Exposure:   p.state.exposure,
		Resolution: p.state.resolution.String(),
		Timestamp:  now(),
	})
}

// shutterSpeed converts milliseconds to the source's microsecond unit.
func shutterSpeed(ms float64) int {
	return int(math.Round(ms * 1000))
}

package sim

// PIDController is a single-axis PID loop with integral anti-windup and
// output limiting. State persists across ticks until Reset.
type PIDController struct {
	Kp, Ki, Kd     float64
	Integral       float64
	LastError      float64
	LastDerivative float64
	LastOutput     float64
	OutputLimit    float64
	IntegralLimit  float64
}

func (pid *PIDController) Update(setpoint, current, dt float64) float64 {
	err := setpoint - current

	// Integrator with anti-windup
	pid.Integral += err * dt
	if pid.IntegralLimit > 0 {
		if pid.Integral > pid.IntegralLimit {
			pid.Integral = pid.IntegralLimit
		}
		if pid.Integral < -pid.IntegralLimit {
			pid.Integral = -pid.IntegralLimit
		}
	}

	derivative := 0.0
	if dt > 0 {
		derivative = (err - pid.LastError) / dt
	}

	output := pid.Kp*err + pid.Ki*pid.Integral + pid.Kd*derivative

	if pid.OutputLimit > 0 {
		if output > pid.OutputLimit {
			output = pid.OutputLimit
		}
		if output < -pid.OutputLimit {
			output = -pid.OutputLimit
		}
	}

	pid.LastError = err
	pid.LastDerivative = derivative
	pid.LastOutput = output
	return output
}

// Reset clears accumulator state. Called on interceptor reset and after
// extreme attitude excursions to stop divergence from stale windup.
func (pid *PIDController) Reset() {
	pid.Integral = 0
	pid.LastError = 0
	pid.LastDerivative = 0
	pid.LastOutput = 0
}

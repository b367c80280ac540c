package reveal

import "time"

// Tick advances the reader by the time elapsed since the previous frame.
// The host calls it once per frame; all timing happens here.
func (r *Reader) Tick(elapsed time.Duration) {
	switch r.phase {
	case PhaseStarting:
		r.start()
		if r.phase == PhaseReading {
			r.read(elapsed)
		}
	case PhaseReading:
		r.read(elapsed)
	case PhaseFinishing:
		r.finish()
	}
}

func (r *Reader) start() {
	r.events.resolveText(r.text)
	r.finished = false

	if r.descriptor != nil && r.label != "" {
		r.descriptor.SetText(r.label)
	}

	direction := r.effectiveDirection()
	if direction >= 0 {
		r.target.SetText(r.preexisting)
		r.shown = 0
	} else {
		r.target.SetText(r.preexisting + r.text)
		r.shown = len(r.body)
	}

	r.fire(r.events.start, Event{Type: EventStart, Index: -1})
	if r.phase != PhaseStarting {
		// A start handler took over (GoToEnd, Read...).
		return
	}

	if len(r.body) == 0 || r.instant() {
		if direction >= 0 {
			r.target.AppendText(r.text)
			r.shown = len(r.body)
		} else {
			r.target.TrimEnd(len(r.body))
			r.shown = 0
		}
		r.finish()
		return
	}

	r.delay = 0
	r.elapsed = 0
	r.phase = PhaseReading
}

func (r *Reader) read(elapsed time.Duration) {
	if r.direction == Paused {
		return
	}
	r.elapsed += elapsed

	for r.phase == PhaseReading {
		if r.exhausted() {
			r.finish()
			return
		}
		if r.direction == Paused {
			return
		}

		threshold := time.Duration(float64(r.delay) * r.speed)
		if r.elapsed < threshold {
			return
		}
		r.elapsed -= threshold
		r.step()
	}
}

// step reveals or hides the character under the cursor.
func (r *Reader) step() {
	var index int
	if r.direction > 0 {
		index = r.shown
		r.target.AppendText(string(r.body[index]))
		r.shown++
	} else {
		index = r.shown - 1
		r.target.TrimEnd(1)
		r.shown--
	}

	ch := r.body[index]
	r.delay = r.delayFor(ch)
	r.fireIntercept(index, ch)
}

// exhausted reports whether the cursor left the body in the current direction.
func (r *Reader) exhausted() bool {
	switch {
	case r.direction > 0:
		return r.shown >= len(r.body)
	case r.direction < 0:
		return r.shown <= 0
	default:
		return false
	}
}

func (r *Reader) finish() {
	r.finished = true
	r.phase = PhaseFinishing
	r.logger.Debug("reveal finished", "chars", len(r.body), "shown", r.shown)
	if r.firingFinish {
		return
	}
	r.firingFinish = true
	r.fire(r.events.finish, Event{Type: EventFinish, Index: -1})
	r.firingFinish = false
	if r.phase == PhaseFinishing {
		r.phase = PhaseWaiting
	}
}

package scanner

import "time"

// NotifyMutation reports that page scripts added nodes. Any positive count
// arms a pending rescan; further mutations before it fires push it back, so a
// burst of insertions costs one pass.
func (p *Page) NotifyMutation(added int) {
	if added <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = true
	if p.timer == nil {
		p.timer = time.AfterFunc(p.cfg.Debounce, p.rescan)
		return
	}
	p.timer.Reset(p.cfg.Debounce)
}

// rescan is the timer callback. Only newly added text can match, so it
// skips the refresh that a dictionary change needs.
func (p *Page) rescan() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.pending {
		return
	}
	p.pending = false

	created := p.apply()
	if created > 0 {
		p.cfg.Logger.Debug("rescan tagged new content", "created", created)
	}
}

// Pending reports whether a rescan is armed.
func (p *Page) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

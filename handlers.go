package avplayer

// handlerSet holds the notification callbacks an embedder registers through
// [Player]'s OnXxx setters. Every field is optional; fireX is a no-op when
// the corresponding callback is nil. All fireX calls run on the dispatcher's
// Pump goroutine, never on a worker, per spec §4.5.
type handlerSet struct {
	sourceChanged      func(url string)
	stateChanged       func(s State)
	mediaStatusChanged func(s MediaStatus)
	seekableChanged    func(v bool)
	durationChanged    func(ms int64)
	frameRateChanged   func(fps float64)
	speedChanged       func(r float64)
	errorOccurred      func(kind ErrorKind, str string)
	videoFrame         func(f VideoFrame)
	audioFrame         func(f AudioFrame)
	seeked             func(posMs int64)
	paused             func(posMs int64)
	stepped            func(posMs int64)
}

func (h *handlerSet) fireSourceChanged(url string) {
	if h.sourceChanged != nil {
		h.sourceChanged(url)
	}
}

func (h *handlerSet) fireState(s State) {
	if h.stateChanged != nil {
		h.stateChanged(s)
	}
}

func (h *handlerSet) fireMediaStatus(s MediaStatus) {
	if h.mediaStatusChanged != nil {
		h.mediaStatusChanged(s)
	}
}

func (h *handlerSet) fireSeekable(v bool) {
	if h.seekableChanged != nil {
		h.seekableChanged(v)
	}
}

func (h *handlerSet) fireDuration(ms int64) {
	if h.durationChanged != nil {
		h.durationChanged(ms)
	}
}

func (h *handlerSet) fireVideoFrameRate(fps float64) {
	if h.frameRateChanged != nil {
		h.frameRateChanged(fps)
	}
}

func (h *handlerSet) fireSpeedChanged(r float64) {
	if h.speedChanged != nil {
		h.speedChanged(r)
	}
}

func (h *handlerSet) fireError(kind ErrorKind, str string) {
	if h.errorOccurred != nil {
		h.errorOccurred(kind, str)
	}
}

func (h *handlerSet) fireVideoFrame(f VideoFrame) {
	if h.videoFrame != nil {
		h.videoFrame(f)
	}
}

func (h *handlerSet) fireAudioFrame(f AudioFrame) {
	if h.audioFrame != nil {
		h.audioFrame(f)
	}
}

func (h *handlerSet) fireSeeked(posMs int64) {
	if h.seeked != nil {
		h.seeked(posMs)
	}
}

func (h *handlerSet) firePaused(posMs int64) {
	if h.paused != nil {
		h.paused(posMs)
	}
}

func (h *handlerSet) fireStepped(posMs int64) {
	if h.stepped != nil {
		h.stepped(posMs)
	}
}

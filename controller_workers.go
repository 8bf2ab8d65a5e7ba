package avplayer

import "time"

// loader runs once per SetSource, on its own errgroup goroutine: open the
// demuxer, publish the stream-level properties, and hand off to the
// steady-state demux/video/audio workers. Grounded on qavplayer.cpp's
// doLoad, collapsed into a single errgroup member instead of a detached
// QThreadPool task since errgroup already gives terminateLocked something
// to Wait on.
func (c *controller) loader(url string) error {
	if err := c.demux.Load(url); err != nil {
		c.setError(ResourceError, err.Error())
		return nil
	}

	hasVideo := c.demux.VideoStreamIndex() >= 0
	rawHasAudio := c.demux.AudioStreamIndex() >= 0
	if !hasVideo && !rawHasAudio {
		c.setError(ResourceError, errNoCodecsFound)
		return nil
	}
	hasAudio := rawHasAudio && !c.ignoreAudio
	c.setStreams(hasVideo, hasAudio)

	c.decodersMu.Lock()
	c.videoDecoder = c.demux.VideoDecoder()
	if hasAudio {
		c.audioDecoder = c.demux.AudioDecoder(c.Speed)
	}
	c.decodersMu.Unlock()

	frameRate := c.demux.FrameRate()
	c.setSeekable(c.demux.Seekable())
	c.setDuration(c.demux.Duration())
	c.setVideoFrameRate(frameRate)
	c.videoQueue.SetFrameRate(frameRate)

	c.setMediaStatus(LoadedMedia)
	c.updatePosition(0)

	if c.getPendingPlay() {
		c.Play()
	}

	c.group.Go(c.demuxWorker)
	if hasVideo {
		c.group.Go(c.videoWorker)
	}
	if hasAudio {
		c.group.Go(c.audioWorker)
	}
	return nil
}

// demuxWorker is the single producer for both packet queues, and the only
// place a seek actually touches the demuxer. Grounded on qavplayer.cpp's
// doDemux, including its 15MiB combined-queue cap and 10ms idle poll.
func (c *controller) demuxWorker() error {
	for {
		if c.isQuitting() {
			return nil
		}
		c.gate.Wait()
		if c.isQuitting() {
			return nil
		}

		if pos, ok := c.takePendingPosition(); ok {
			c.doSeek(pos)
			continue
		}

		if c.videoQueue.Bytes()+c.audioQueue.Bytes() >= maxQueuedBytes {
			time.Sleep(demuxIdleSleep)
			continue
		}
		if c.videoQueue.Enough() && c.audioQueue.Enough() {
			time.Sleep(demuxIdleSleep)
			continue
		}

		pkt, err := c.demux.Read()
		if err != nil {
			c.setError(ResourceError, err.Error())
			return nil
		}
		if pkt == nil {
			if c.demux.Eof() && c.videoQueue.IsEmpty() && c.audioQueue.IsEmpty() {
				c.enterEndOfMedia()
			}
			time.Sleep(demuxIdleSleep)
			continue
		}

		switch pkt.StreamIndex {
		case c.demux.VideoStreamIndex():
			c.videoQueue.Enqueue(pkt)
		case c.demux.AudioStreamIndex():
			// Dropped rather than queued when audio is ignored (WithoutAudio):
			// nothing would ever drain it, and an ever-growing audio queue would
			// keep IsEmpty() false forever, so end-of-media would never fire.
			if c.HasAudio() {
				c.audioQueue.Enqueue(pkt)
			}
		}
	}
}

// enterEndOfMedia implements the demux loop's EOF transition from spec
// §4.4 step 4: stop playback, then mark the session EndOfMedia (distinct
// from a plain Stop, which leaves mediaStatus alone). If looping is
// configured, it instead requests a seek back to the start and keeps
// playing, applied uniformly regardless of which streams are present.
func (c *controller) enterEndOfMedia() {
	if c.Looping() {
		c.seekInternal(0)
		return
	}
	c.Stop()
	c.setMediaStatus(EndOfMedia)
}

// doSeek performs one pending-seek cycle: ask the demuxer to reposition,
// clear both queues and wait out any packet a consumer still holds so stale
// pre-seek packets can never reach a decoder, then reset both synchronizers
// so pacing re-anchors from the new pts.
//
// Deliberately does not call updatePosition itself — c.position was already
// set to pos by seekInternal, and the SeekingMedia->LoadedMedia transition
// (plus the seeked notification) is left for the video/audio worker that
// decodes the first post-seek frame, exactly as qavplayer.cpp's doDemux
// never calls updatePosition itself, only the play loops do. Calling it
// here would flip mediaStatus back to LoadedMedia and, while paused or
// stopped, re-close the gate before a consumer ever got to decode a
// post-seek packet — delivering zero frames at the new position instead of
// the guaranteed one.
func (c *controller) doSeek(pos float64) {
	if err := c.demux.Seek(pos); err != nil {
		pkgLogger.Printf("WARNING: seek to %.3f failed: %v", pos, err)
	}

	c.videoQueue.Clear()
	c.audioQueue.Clear()
	c.videoQueue.WaitForFinished()
	c.audioQueue.WaitForFinished()
	c.videoSync.Reset()
	c.audioSync.Reset()

	c.clearPendingPositionIfStill(pos)
}

// videoWorker paces decoded video frames to wall time and drops any frame
// that has fallen too far behind the audio clock, per spec §4.2.
func (c *controller) videoWorker() error {
	for {
		if c.isQuitting() {
			return nil
		}
		c.gate.Wait()
		if c.isQuitting() {
			return nil
		}
		if c.isSeeking() {
			time.Sleep(workerPollEvery)
			continue
		}

		frame, ok, err := c.decodeNextVideoFrame()
		if err != nil {
			c.setError(ResourceError, err.Error())
			return nil
		}
		if !ok {
			time.Sleep(workerPollEvery)
			continue
		}

		if VideoOutOfSync(frame.PTS, c.audioQueue.PTS()) {
			c.videoQueue.Pop()
			continue
		}

		due := c.videoSync.Due(frame.PTS, c.Speed())
		if !c.waitUntil(due) {
			// abandoned mid-wait by quit/gate/seek: release the packet we were
			// holding so a concurrent doSeek's WaitForFinished isn't stuck
			// waiting on a frame that will never be delivered.
			c.videoQueue.Pop()
			continue
		}

		c.videoQueue.SetPTS(frame.PTS)
		vf := *frame
		c.dispatcher.Post(func() { c.handlers.fireVideoFrame(vf) })
		// Pop only after the frame is queued for delivery, so a concurrent
		// demux-worker EOF check (which looks at queue emptiness) can never
		// observe "drained" before this frame has actually been posted.
		c.videoQueue.Pop()
		c.updatePosition(frame.PTS)

		if c.MediaStatus() == SteppingMedia || c.State() != Playing {
			c.setWait(true)
		}
	}
}

// audioWorker mirrors videoWorker without the sync-drop check: the audio
// queue's pts is itself the clock video syncs against. It also only drives
// updatePosition when there's no video stream to do it instead — see the
// comment at its call site below.
func (c *controller) audioWorker() error {
	for {
		if c.isQuitting() {
			return nil
		}
		c.gate.Wait()
		if c.isQuitting() {
			return nil
		}
		if c.isSeeking() {
			time.Sleep(workerPollEvery)
			continue
		}

		frame, ok, err := c.decodeNextAudioFrame()
		if err != nil {
			c.setError(ResourceError, err.Error())
			return nil
		}
		if !ok {
			time.Sleep(workerPollEvery)
			continue
		}

		due := c.audioSync.Due(frame.PTS, c.Speed())
		if !c.waitUntil(due) {
			c.audioQueue.Pop()
			continue
		}

		c.audioQueue.SetPTS(frame.PTS)
		af := *frame
		c.dispatcher.Post(func() { c.handlers.fireAudioFrame(af) })
		c.audioQueue.Pop()
		// Only the sole stream driver calls updatePosition: with both streams
		// present, the video worker owns position/transition reporting so the
		// two clocks can't race to fire seeked/paused/stepped or stomp on
		// position with whichever pts landed last (qavplayer.cpp:410-411).
		if !c.HasVideo() {
			c.updatePosition(frame.PTS)
		}

		if c.MediaStatus() == SteppingMedia || c.State() != Playing {
			c.setWait(true)
		}
	}
}

// decodeNextVideoFrame drives the queue/decoder pair until a packet yields a
// frame or the queue runs dry. A packet that decodes to "need more data" is
// popped and the next one tried immediately, per the FrameCodec contract in
// spec §6; a packet whose decode fails is logged and skipped the same way,
// so err is always nil and decode failures never surface as ResourceError.
func (c *controller) decodeNextVideoFrame() (frame *VideoFrame, ok bool, err error) {
	c.decodersMu.Lock()
	dec := c.videoDecoder
	c.decodersMu.Unlock()
	if dec == nil {
		return nil, false, nil
	}

	for {
		pkt, has := c.videoQueue.TryDequeue()
		if !has {
			return nil, false, nil
		}
		frame, decoded, derr := dec.DecodeVideo(pkt)
		if derr != nil {
			pkgLogger.Printf("WARNING: video decode failed, skipping packet: %v", derr)
			c.videoQueue.Pop()
			continue
		}
		if !decoded {
			c.videoQueue.Pop()
			continue
		}
		return frame, true, nil
	}
}

func (c *controller) decodeNextAudioFrame() (frame *AudioFrame, ok bool, err error) {
	c.decodersMu.Lock()
	dec := c.audioDecoder
	c.decodersMu.Unlock()
	if dec == nil {
		return nil, false, nil
	}

	for {
		pkt, has := c.audioQueue.TryDequeue()
		if !has {
			return nil, false, nil
		}
		frame, decoded, derr := dec.DecodeAudio(pkt)
		if derr != nil {
			pkgLogger.Printf("WARNING: audio decode failed, skipping packet: %v", derr)
			c.audioQueue.Pop()
			continue
		}
		if !decoded {
			c.audioQueue.Pop()
			continue
		}
		return frame, true, nil
	}
}

// waitUntil blocks in short increments until due, so it stays responsive to
// quit, the gate closing, or a seek landing mid-wait. Returns false if one of
// those interrupted the wait before due arrived, telling the caller to
// re-evaluate instead of emitting the frame it was pacing.
func (c *controller) waitUntil(due time.Time) bool {
	for {
		remaining := time.Until(due)
		if remaining <= 0 {
			return true
		}
		if c.isQuitting() || c.gate.Waiting() || c.isSeeking() {
			return false
		}
		step := workerPollEvery
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
	}
}

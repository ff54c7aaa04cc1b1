// Package audio computes acoustic features from a PCM waveform plus optional
// speech-to-text word timings. Codec handling happens upstream; this package
// consumes mono float64 samples in [-1, 1].
//
// Extraction is total: unreadable or too-short input yields the documented
// neutral-default AudioFeatureSet instead of an error, with DurationSeconds
// left at 0 as the degraded sentinel.
package audio

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/model"
)

const (
	// MinDurationSec is the shortest waveform considered analyzable.
	MinDurationSec = 0.1

	// SilenceThresholdRMSRatio marks a frame as a pause when its RMS falls
	// below this fraction of the loudest frame.
	SilenceThresholdRMSRatio = 0.05

	// Voiced pitch search band. Fundamentals outside [75, 500] Hz are treated
	// as tracking artifacts and discarded.
	pitchMinHz = 75.0
	pitchMaxHz = 500.0

	// Normalized autocorrelation threshold for calling a frame voiced.
	voicingThreshold = 0.30

	// snrCeilingDB is reported when the noise floor is negligible.
	snrCeilingDB = 50.0

	frameSec = 0.025
	hopSec   = 0.010
)

// Extract computes the AudioFeatureSet for one response.
// samples is the mono waveform; sampleRate its rate in Hz; timings the
// optional per-word spans from the speech-to-text collaborator.
func Extract(samples []float64, sampleRate int, timings []model.WordTiming) model.AudioFeatureSet {
	if sampleRate <= 0 || float64(len(samples))/float64(sampleRate) < MinDurationSec {
		zap.L().Debug("audio: unanalyzable waveform, using neutral defaults",
			zap.Int("samples", len(samples)),
			zap.Int("sample_rate", sampleRate),
		)
		return model.DefaultAudioFeatures()
	}

	fs := model.AudioFeatureSet{
		DurationSeconds: float64(len(samples)) / float64(sampleRate),
	}

	frames := frameRMS(samples, sampleRate)
	if len(frames) == 0 {
		return model.DefaultAudioFeatures()
	}

	volMean, volStd := meanStd(frames)
	fs.VolumeMean = volMean
	if volMean > 1e-9 {
		fs.VolumeRelStdDev = volStd / volMean
	}

	fs.SNRDB = estimateSNR(frames)
	fs.PauseRatio = pauseRatio(frames)

	pitchMean, pitchStd := trackPitch(samples, sampleRate, frames)
	fs.PitchMeanHz = pitchMean
	fs.PitchStdDevHz = pitchStd

	conf, wpm, jitter := wordTimingStats(timings)
	fs.AvgWordConfidence = conf
	fs.SpeechRateWPM = wpm
	fs.WordTimingRelJitter = jitter

	return fs
}

// frameRMS computes per-frame root-mean-square energy over a 25ms window with
// a 10ms hop.
func frameRMS(samples []float64, sampleRate int) []float64 {
	frameLen := int(float64(sampleRate) * frameSec)
	hop := int(float64(sampleRate) * hopSec)
	if frameLen < 1 {
		frameLen = 1
	}
	if hop < 1 {
		hop = 1
	}

	var out []float64
	for start := 0; start+frameLen <= len(samples); start += hop {
		sum := 0.0
		for _, s := range samples[start : start+frameLen] {
			sum += s * s
		}
		out = append(out, math.Sqrt(sum/float64(frameLen)))
	}
	// Waveforms shorter than one frame still produce a single partial frame.
	if len(out) == 0 {
		sum := 0.0
		for _, s := range samples {
			sum += s * s
		}
		out = append(out, math.Sqrt(sum/float64(len(samples))))
	}
	return out
}

// estimateSNR derives a signal-to-noise ratio from frame energies. The noise
// floor is the mean power of the quietest 10% of frames, or of the first
// 100ms, whichever spans fewer frames.
func estimateSNR(frames []float64) float64 {
	powers := make([]float64, len(frames))
	signalPower := 0.0
	for i, r := range frames {
		powers[i] = r * r
		signalPower += powers[i]
	}
	signalPower /= float64(len(powers))

	sorted := append([]float64(nil), powers...)
	sort.Float64s(sorted)

	nLowest := len(sorted) / 10
	nFirst100ms := int(0.1 / hopSec) // frames in the first 100ms
	n := min(nLowest, nFirst100ms)
	if n < 1 {
		n = 1
	}

	noisePower := 0.0
	for _, p := range sorted[:n] {
		noisePower += p
	}
	noisePower /= float64(n)

	if noisePower < 1e-12 || signalPower <= noisePower {
		if noisePower < 1e-12 {
			return snrCeilingDB
		}
		return 0
	}

	snr := 10 * math.Log10(signalPower/noisePower)
	return math.Min(snr, snrCeilingDB)
}

// pauseRatio returns the fraction of frames quieter than
// SilenceThresholdRMSRatio of the loudest frame.
func pauseRatio(frames []float64) float64 {
	peak := 0.0
	for _, r := range frames {
		if r > peak {
			peak = r
		}
	}
	if peak <= 0 {
		return 1.0
	}
	threshold := peak * SilenceThresholdRMSRatio
	silent := 0
	for _, r := range frames {
		if r < threshold {
			silent++
		}
	}
	return float64(silent) / float64(len(frames))
}

// trackPitch estimates F0 per voiced frame via normalized autocorrelation and
// returns the mean and standard deviation over voiced frames only. Fewer than
// two voiced frames yields (0, 0).
func trackPitch(samples []float64, sampleRate int, frames []float64) (mean, std float64) {
	frameLen := int(float64(sampleRate) * frameSec * 2) // pitch needs a longer window
	hop := int(float64(sampleRate) * hopSec)
	if frameLen < 2 || hop < 1 {
		return 0, 0
	}

	peak := 0.0
	for _, r := range frames {
		if r > peak {
			peak = r
		}
	}
	energyGate := peak * SilenceThresholdRMSRatio

	minLag := int(float64(sampleRate) / pitchMaxHz)
	maxLag := int(float64(sampleRate) / pitchMinHz)
	if minLag < 1 {
		minLag = 1
	}

	var voiced []float64
	frameIdx := 0
	for start := 0; start+frameLen <= len(samples); start += hop {
		// Reuse frame energies where available to skip silent frames.
		if frameIdx < len(frames) && frames[frameIdx] < energyGate {
			frameIdx++
			continue
		}
		frameIdx++

		frame := samples[start : start+frameLen]
		if f0, ok := autocorrelatePitch(frame, sampleRate, minLag, maxLag); ok {
			voiced = append(voiced, f0)
		}
	}

	if len(voiced) < 2 {
		return 0, 0
	}
	return meanStd(voiced)
}

// autocorrelatePitch finds the strongest autocorrelation lag in the pitch
// band. Returns false for unvoiced frames.
func autocorrelatePitch(frame []float64, sampleRate, minLag, maxLag int) (float64, bool) {
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if maxLag <= minLag {
		return 0, false
	}

	energy := 0.0
	for _, s := range frame {
		energy += s * s
	}
	if energy < 1e-12 {
		return 0, false
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
		}
		corr /= energy
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr < voicingThreshold {
		return 0, false
	}
	return float64(sampleRate) / float64(bestLag), true
}

// wordTimingStats derives confidence, speech rate and inter-word jitter from
// STT word timings. Absent timings yield the fixed neutral defaults.
func wordTimingStats(timings []model.WordTiming) (confidence, wpm, jitter float64) {
	def := model.DefaultAudioFeatures()
	if len(timings) == 0 {
		return def.AvgWordConfidence, def.SpeechRateWPM, def.WordTimingRelJitter
	}

	confSum := 0.0
	for _, w := range timings {
		confSum += w.Confidence
	}
	confidence = confSum / float64(len(timings))

	// Speech rate over the spoken span, not the full recording.
	span := timings[len(timings)-1].EndSec - timings[0].StartSec
	if span < MinDurationSec {
		span = MinDurationSec
	}
	wpm = float64(len(timings)) / span * 60.0

	if len(timings) < 3 {
		return confidence, wpm, def.WordTimingRelJitter
	}

	gaps := make([]float64, 0, len(timings)-1)
	for i := 1; i < len(timings); i++ {
		gap := timings[i].StartSec - timings[i-1].EndSec
		if gap < 0 {
			gap = 0
		}
		gaps = append(gaps, gap)
	}
	gapMean, gapStd := meanStd(gaps)
	if gapMean > 1e-9 {
		jitter = gapStd / gapMean
	}
	return confidence, wpm, jitter
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		d := x - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(xs)))
	return mean, std
}

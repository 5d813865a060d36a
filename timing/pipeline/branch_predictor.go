package pipeline

// BranchPredictorConfig holds configuration for the branch predictor.
type BranchPredictorConfig struct {
	// Entries is the number of BTB/BHT entries. Must be a power of 2.
	// Default is 64, indexed by PC[7:2].
	Entries uint32
}

// DefaultBranchPredictorConfig returns a default configuration.
func DefaultBranchPredictorConfig() BranchPredictorConfig {
	return BranchPredictorConfig{
		Entries: 64,
	}
}

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Updates is the number of branch outcomes trained into the predictor.
	Updates uint64
	// Correct is the number of correct direction predictions.
	Correct uint64
	// Mispredictions is the number of incorrect direction predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Updates == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Updates) * 100
}

// Prediction represents a fetch-time branch prediction.
type Prediction struct {
	// BTBHit indicates the indexed BTB entry was valid.
	BTBHit bool
	// Taken indicates the BHT counter is in a predict-taken state.
	Taken bool
	// Target is the cached target address (meaningful on a BTB hit).
	Target uint32
	// NextPC is the address fetch should redirect to: the cached target
	// when hit and predicted taken, PC+4 otherwise.
	NextPC uint32
}

// BranchPredictor implements a direct-indexed BTB with a 2-bit saturating
// counter (bimodal) BHT. Both tables share one index derived from the low
// PC bits; entries carry no tag, so aliasing branches share state.
//
// Counter states: 0 = strongly not taken, 1 = weakly not taken,
// 2 = weakly taken, 3 = strongly taken. Counters start at 1.
type BranchPredictor struct {
	btb      []uint32
	btbValid []bool
	bht      []uint8

	entries uint32

	stats BranchPredictorStats
}

// NewBranchPredictor creates a new branch predictor with the given
// configuration.
func NewBranchPredictor(config BranchPredictorConfig) *BranchPredictor {
	entries := config.Entries
	if entries == 0 {
		entries = 64
	}

	bp := &BranchPredictor{
		btb:      make([]uint32, entries),
		btbValid: make([]bool, entries),
		bht:      make([]uint8, entries),
		entries:  entries,
	}

	// Start at weakly not taken.
	for i := range bp.bht {
		bp.bht[i] = 1
	}

	return bp
}

// index computes the table index for a given PC (PC[7:2] for the default
// 64-entry configuration).
func (bp *BranchPredictor) index(pc uint32) uint32 {
	return (pc >> 2) & (bp.entries - 1)
}

// Predict looks up the prediction for the given PC. Predict is a pure read:
// the same-cycle Update at an equal index is not visible to it.
func (bp *BranchPredictor) Predict(pc uint32) Prediction {
	idx := bp.index(pc)

	pred := Prediction{
		BTBHit: bp.btbValid[idx],
		Taken:  bp.bht[idx] >= 2,
		Target: bp.btb[idx],
	}

	if pred.BTBHit && pred.Taken {
		pred.NextPC = pred.Target
	} else {
		pred.NextPC = pc + 4
	}

	return pred
}

// Update trains the predictor with an executed branch outcome. The BTB
// entry is rewritten with the actual target and validated; the BHT counter
// saturates toward the observed direction.
func (bp *BranchPredictor) Update(pc uint32, taken bool, target uint32) {
	idx := bp.index(pc)

	bp.stats.Updates++
	predictedTaken := bp.btbValid[idx] && bp.bht[idx] >= 2
	if predictedTaken == taken {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}

	counter := bp.bht[idx]
	if taken {
		if counter < 3 {
			bp.bht[idx] = counter + 1
		}
	} else {
		if counter > 0 {
			bp.bht[idx] = counter - 1
		}
	}

	bp.btb[idx] = target
	bp.btbValid[idx] = true
}

// Entry returns the BTB/BHT state at the entry covering pc, for inspection.
func (bp *BranchPredictor) Entry(pc uint32) (target uint32, valid bool, counter uint8) {
	idx := bp.index(pc)
	return bp.btb[idx], bp.btbValid[idx], bp.bht[idx]
}

// Entries returns the number of table entries.
func (bp *BranchPredictor) Entries() uint32 {
	return bp.entries
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	for i := range bp.bht {
		bp.bht[i] = 1
	}
	for i := range bp.btbValid {
		bp.btbValid[i] = false
	}
	bp.stats = BranchPredictorStats{}
}

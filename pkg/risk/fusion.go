package risk

// Fuse combines the keyword and model signals into the authoritative
// verdict. Pure and total: no configuration, no I/O, no failure modes.
//
// Two rules apply, and both are kept deliberately even though they agree
// today: the max rule picks the higher ordinal level, and the critical
// override forces Critical whenever either input reports Critical. The
// override is a standalone safety invariant — it must survive any future
// reshaping of the ordinal scale (say, levels inserted above Critical's
// current rank), so it is not folded into the max computation.
func Fuse(kw KeywordSignal, model ModelSignal) FusedVerdict {
	final := MaxLevel(kw.Level, model.Level)

	if kw.Level == LevelCritical || model.Level == LevelCritical {
		final = LevelCritical
	}

	return FusedVerdict{
		FinalLevel:           final,
		Keyword:              kw,
		Model:                model,
		RequiresIntervention: final >= LevelHigh,
		ImmediateCrisis:      final == LevelCritical,
	}
}

package core

import "crosscore/pkg/domain"

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewGenotypeShapeRule())
	engine.Register(NewGeneIdentifierCollisionRule())
	engine.Register(NewCodominantRankProfileRule())
	engine.Register(NewTraitReferenceRule())
	return engine
}

package core

import "crosscore/pkg/domain"

type (
	EntityType         = domain.EntityType
	ParentRole         = domain.ParentRole
	Severity           = domain.Severity
	Base               = domain.Base
	Parent             = domain.Parent
	CrossConfiguration = domain.CrossConfiguration
	TraitRecord        = domain.TraitRecord
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
)

const (
	EntityConfiguration = domain.EntityConfiguration
	EntityTrait         = domain.EntityTrait
)

const (
	RoleMother = domain.RoleMother
	RoleFather = domain.RoleFather
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

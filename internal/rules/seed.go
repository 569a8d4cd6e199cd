package rules

// SeedRules is the built-in rule set used when no rules file is configured.
// It covers the launch jurisdictions: Egypt, the UAE, Saudi Arabia, Iraq
// and the EU pseudo-jurisdiction (strict prescription regime, all
// cold-chain tracked).
func SeedRules() []Rule {
	return []Rule{
		{Country: "EG", Class: "otc", Requirement: RequirementOTC},
		{Country: "EG", Class: "supplement", Requirement: RequirementOTC},
		{Country: "EG", Class: "antibiotic", Requirement: RequirementRx},
		{Country: "EG", Class: "insulin", Requirement: RequirementRxColdChain},

		{Country: "AE", Class: "otc", Requirement: RequirementOTC},
		{Country: "AE", Class: "supplement", Requirement: RequirementOTC},
		{Country: "AE", Class: "antibiotic", Requirement: RequirementRx},
		{Country: "AE", Class: "insulin", Requirement: RequirementRxColdChain},

		{Country: "SA", Class: "otc", Requirement: RequirementOTC},
		{Country: "SA", Class: "antibiotic", Requirement: RequirementRx},
		{Country: "SA", Class: "insulin", Requirement: RequirementRxColdChain},

		{Country: "IQ", Class: "otc", Requirement: RequirementOTC},
		{Country: "IQ", Class: "antibiotic", Requirement: RequirementRx},
		{Country: "IQ", Class: "insulin", Requirement: RequirementRxColdChain},

		{Country: "EU", Class: "otc", Requirement: RequirementOTC},
		{Country: "EU", Class: "antibiotic", Requirement: RequirementRx},
		{Country: "EU", Class: "insulin", Requirement: RequirementRxColdChain},
	}
}

// MustSeedTable builds the seed table; the seed data is static so a failure
// is a programming error.
func MustSeedTable() *Table {
	t, err := NewTable(SeedRules())
	if err != nil {
		panic(err)
	}
	return t
}

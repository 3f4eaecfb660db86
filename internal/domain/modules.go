package domain

// PageModule names a landing page section rendered for a lead.
type PageModule string

const (
	ModuleRiskFreeScaler  PageModule = "RiskFreeScaler"
	ModuleProtocolMatcher PageModule = "ProtocolMatcher"
	ModuleColorAtelier    PageModule = "ColorAtelier"
	ModuleTrendAnalysis   PageModule = "TrendAnalysis"
	ModuleBulkPricing     PageModule = "BulkPricing"
	ModuleWhiteLabel      PageModule = "WhiteLabel"
	ModuleBrandPortfolio  PageModule = "BrandPortfolio"
)

// ModuleConfig orders an industry-specific module on the page.
type ModuleConfig struct {
	Component PageModule
	Priority  int
}

var industryModules = map[Industry][]ModuleConfig{
	IndustrySpa: {
		{ModuleBrandPortfolio, 1},
		{ModuleRiskFreeScaler, 2},
		{ModuleProtocolMatcher, 3},
		{ModuleColorAtelier, 4},
	},
	IndustryClinic: {
		{ModuleBrandPortfolio, 1},
		{ModuleRiskFreeScaler, 2},
		{ModuleProtocolMatcher, 3},
		{ModuleColorAtelier, 4},
	},
	IndustryRetail: {
		{ModuleBrandPortfolio, 1},
		{ModuleRiskFreeScaler, 2},
		{ModuleTrendAnalysis, 3},
		{ModuleColorAtelier, 4},
	},
	IndustryHotel: {
		{ModuleBrandPortfolio, 1},
		{ModuleBulkPricing, 2},
		{ModuleWhiteLabel, 3},
		{ModuleProtocolMatcher, 4},
	},
	IndustryDistributor: {
		{ModuleBrandPortfolio, 1},
		{ModuleBulkPricing, 2},
		{ModuleRiskFreeScaler, 3},
	},
	IndustryUnknown: {
		{ModuleBrandPortfolio, 1},
		{ModuleRiskFreeScaler, 2},
		{ModuleProtocolMatcher, 3},
		{ModuleColorAtelier, 4},
	},
}

// ModulesForIndustry returns a copy of the module list for an industry, defaulting to unknown.
func ModulesForIndustry(industry Industry) []ModuleConfig {
	modules, ok := industryModules[industry]
	if !ok {
		modules = industryModules[IndustryUnknown]
	}
	out := make([]ModuleConfig, len(modules))
	copy(out, modules)
	return out
}

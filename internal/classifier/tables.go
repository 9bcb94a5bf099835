package classifier

// categoryKeywords maps category labels to trigger keywords. Labels are an
// open vocabulary; overlapping keywords attach multiple labels.
var categoryKeywords = map[string][]string{
	"Immigration": {
		"border", "immigration", "visa", "asylum", "migrant", "deportation",
	},
	"National Security": {
		"national security", "defense", "military", "armed forces", "terrorism",
	},
	"Economy": {
		"economy", "economic", "tariff", "tariffs", "trade", "inflation", "jobs",
	},
	"Energy": {
		"energy", "oil", "natural gas", "drilling", "pipeline", "renewable",
	},
	"Healthcare": {
		"health", "healthcare", "medicare", "medicaid", "prescription",
	},
	"Education": {
		"education", "school", "schools", "student", "university",
	},
	"Environment": {
		"environment", "environmental", "climate", "emissions", "conservation",
	},
	"Technology": {
		"artificial intelligence", "technology", "cybersecurity", "semiconductor",
	},
	"Foreign Policy": {
		"foreign policy", "sanctions", "treaty", "diplomatic", "embassy",
	},
	"Government Reform": {
		"federal workforce", "regulatory", "bureaucracy", "government efficiency",
	},
}

// agencyKeywords maps agency labels to trigger keywords.
var agencyKeywords = map[string][]string{
	"Department of Homeland Security": {
		"department of homeland security", "homeland security", "dhs",
	},
	"Department of Defense": {
		"department of defense", "pentagon", "dod",
	},
	"Department of Justice": {
		"department of justice", "attorney general", "doj",
	},
	"Department of State": {
		"department of state", "secretary of state",
	},
	"Department of the Treasury": {
		"department of the treasury", "treasury",
	},
	"Department of Education": {
		"department of education",
	},
	"Department of Energy": {
		"department of energy",
	},
	"Department of Health and Human Services": {
		"health and human services", "hhs",
	},
	"Environmental Protection Agency": {
		"environmental protection agency", "epa",
	},
	"Department of Commerce": {
		"department of commerce", "commerce department",
	},
	"Department of Labor": {
		"department of labor", "labor department",
	},
	"Office of Management and Budget": {
		"office of management and budget", "omb",
	},
}

package analysis

import "fmt"

const promptTemplate = `You are an expert company intelligence analyst supporting private equity and lead generation research.

Analyze the company "%s" and return ONLY a single JSON object, with no markdown and no commentary.
The object MUST contain a "company_basic_info" object with at least:
  "company_legal_name": the official registered name of the company
  "headquarters": city and country of the head office
  "industry": primary industry
  "founded_year": year the company was founded, or null when unknown
  "website": primary website URL, or null when unknown

Add further top-level sections (for example "business_overview", "financial_information",
"key_personnel", "market_position", "recent_developments") when reliable information exists.
Use null for unknown values rather than guessing.`

func buildPrompt(companyName string) string {
	return fmt.Sprintf(promptTemplate, companyName)
}

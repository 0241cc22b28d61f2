package extract

import (
	"strings"
)

// SystemPrompt is sent as the system message of every extraction request.
const SystemPrompt = "You are a precise research assistant. Follow formatting instructions exactly."

// ScopeBoth is the scope value that adds no focus preface.
const ScopeBoth = "both (risks+threats)"

const (
	strictHint     = "Follow the CSV header exactly and emit only the required fields."
	bestEffortHint = "If unsure, still emit your best-effort rows."

	contentSeparator = "\n\n---\nPDF Content (truncated if very long):\n"
)

// extractionInstructions asks for first-party O-RAN security contributions
// as an academic.csv block followed by an audit.jsonl block.
const extractionInstructions = "Developer: Begin with a concise checklist (3-7 bullets) describing what you will do; keep items conceptual, not implementation-level.\n" +
	"\n" +
	"Extract only first-party contributions from the provided PDF paper(s) about O-RAN security. You must identify concrete Attack, Defense, or Preventative Measures introduced, implemented, evaluated, or evidenced by the authors themselves. Use only information present in the paper text (no web browsing).\n" +
	"\n" +
	"Your output must consist of two fenced code blocks, in this order:\n" +
	"\n" +
	"1. An academic.csv block with the exact header below\n" +
	"2. An audit.jsonl block, with one line per CSV row\n" +
	"\n" +
	"If you find no valid rows, output only the header in the CSV block; the audit.jsonl block should be empty.\n" +
	"\n" +
	"CSV Header (must match exactly and in order):\n" +
	"Name,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference\n" +
	"\n" +
	"Scope & inclusion criteria:\n" +
	"- Include a row only if the authors introduce, implement, evaluate, or empirically evidence a specific Attack, Defense, or Preventative Measure.\n" +
	"- Exclude baselines, background, or techniques merely referenced or restated from other work without new contribution or evidence.\n" +
	"- If there are multiple distinct contributions, output one row per contribution.\n" +
	"\n" +
	"Field instructions:\n" +
	"- Name: concise (≤ 8 words); use the paper's terminology if available. Otherwise, create a stable, descriptive label (no hype).\n" +
	"- Type: specify only one of {Attack, Defense, Preventative Measure} (use exact spelling).\n" +
	"- Description: ≤ 25 words; summarize the action and validation method. If applicable, append a tag: [Theory], [Code], or [Testbed].\n" +
	"- Target Components / Interfaces: comma-separated list of O-RAN canonical components/interfaces most directly acted upon (e.g., \"A1, E2, SMO, Near-RT RIC\"). Normalize to canonical O-RAN terms when clearly indicated. Omit non-canonical terms if normalization is not possible.\n" +
	"- Affected Components / Interfaces: comma-separated list of assets expected to be impacted. If not stated, leave blank. Normalize as above.\n" +
	"- Reference: DOI if present in text; else, leave blank.\n" +
	"\n" +
	"Output format example (structure only; content is illustrative):\n" +
	"\n" +
	"```academic.csv\n" +
	"Name,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference\n" +
	"E2 Subscription Flood,Attack,Exhausts E2 event handlers via adversarial subscriptions,Near-RT RIC; E2,Near-RT RIC; O-DU,10.1145/XXXX\n" +
	"RIC App Sandboxing,Defense,Constrain xApps via WASI sandboxing [Code],Near-RT RIC,,10.1109/XXXX\n" +
	"Secure A1 Policy,Preventative Measure,Restrict policy updates with signed tokens [Testbed],A1,Near-RT RIC;\n" +
	"```\n" +
	"```audit.jsonl\n" +
	"{\"row\":1,\"evidence\":\"Figure 3; §4.2 describes attack rate; Table 2 shows success.\"}\n" +
	"{\"row\":2,\"evidence\":\"§5.1 sandbox design; GitHub link; evaluation §6.\"}\n" +
	"{\"row\":3,\"evidence\":\"Policy tokens §3; testbed details in §5.\"}\n" +
	"```\n" +
	"\n" +
	"Now read the provided PDF text and produce the two-code-block output exactly as specified.\n"

// BuildPrompt assembles the user message for one document. A non-empty scope
// other than ScopeBoth is prepended as a focus line.
func BuildPrompt(pdfText, scope string, strict bool) string {
	var b strings.Builder
	b.Grow(len(extractionInstructions) + len(pdfText) + 256)

	if scope != "" && !strings.EqualFold(scope, ScopeBoth) {
		b.WriteString("(Focus scope: ")
		b.WriteString(scope)
		b.WriteString(")\n")
	}
	if strict {
		b.WriteString(strictHint)
	} else {
		b.WriteString(bestEffortHint)
	}
	b.WriteString("\n\n")
	b.WriteString(extractionInstructions)
	b.WriteString(contentSeparator)
	b.WriteString(pdfText)
	return b.String()
}

// Package content holds the read-only learning material shown on the
// Finance 101 and expert advice pages.
package content

import "strings"

// Article is one Finance 101 card.
type Article struct {
	ID          int
	Slug        string
	Title       string
	Description string
	VideoURL    string
	Tone        string // css accent: primary, accent, success, danger
}

// Feature is a teaser tile on the advice page.
type Feature struct {
	Title string
	Body  string
}

// Advice is the placeholder content for the expert advice page.
type Advice struct {
	Tagline  string
	Headline string
	Summary  string
	Features []Feature
	Tip      string
}

var articles = []Article{
	{
		ID:          1,
		Slug:        "budgeting-basics",
		Title:       "Budgeting Basics",
		Description: "Learn the 50/30/20 rule: allocate 50% to needs, 30% to wants, and 20% to savings and debt repayment.",
		VideoURL:    "https://youtu.be/T7JHfLGm_GY?si=UOP1xBwEK2t0dhJl ",
		Tone:        "primary",
	},
	{
		ID:    2,
		Slug:  "emergency-fund",
		Title: "Building an Emergency Fund",
		Description: "An emergency fund is a dedicated savings reserve set aside to cover unexpected expenses such as medical bills, " +
			"urgent home or car repairs, or job loss. Its purpose is to give you a financial safety net.",
		VideoURL: "https://youtu.be/g-hir-4WzfU?si=BBvMaZKM6B4LfA7s",
		Tone:     "accent",
	},
	{
		ID:    3,
		Slug:  "assets",
		Title: "Assets",
		Description: "An asset is something that puts money in your pocket: rental properties, stocks, or a business you own. " +
			"Build as many assets as you can on the way to financial independence.",
		VideoURL: "https://youtu.be/g-hir-4WzfU?si=BBvMaZKM6B4LfA7s",
		Tone:     "primary",
	},
	{
		ID:    4,
		Slug:  "liabilities",
		Title: "Liabilities",
		Description: "A liability is something that takes money out of your pocket, like loans, cars, or things that lose value over time. " +
			"Ideally you carry none.",
		VideoURL: "https://youtu.be/qOz1a1aIWc0?si=1tpGKNo3GB2-rsRi",
		Tone:     "danger",
	},
	{
		ID:    5,
		Slug:  "tax-planning",
		Title: "Tax Planning Strategies",
		Description: "Maximize deductions by keeping receipts for charitable donations, medical expenses, and business costs. " +
			"Consider retirement contributions to reduce taxable income.",
		VideoURL: "https://youtu.be/tIJLoqdwev0?si=jXe83Eewx3cTSMEp",
		Tone:     "primary",
	},
	{
		ID:    6,
		Slug:  "investment-fundamentals",
		Title: "Investment Fundamentals",
		Description: "Diversify across stocks, bonds, and real estate. Start with index funds for low fees. " +
			"Compound interest rewards starting early.",
		VideoURL: "https://youtu.be/qIw-yFC-HNU?si=hBzzR4w6geubnynQ",
		Tone:     "accent",
	},
	{
		ID:    7,
		Slug:  "retirement-planning",
		Title: "Retirement Planning",
		Description: "Retirement planning means saving and investing today for a secure life after you stop working. " +
			"Estimate future expenses and pick long-term options such as PPF or mutual funds.",
		VideoURL: "https://youtu.be/hRhKNiu6k7A?si=P_FqxSixES31Sai0",
		Tone:     "success",
	},
	{
		ID:    8,
		Slug:  "saving-habits",
		Title: "Smart Saving Habits",
		Description: "Automate savings transfers. Use separate accounts for different goals. Pay yourself first by saving before spending. " +
			"Review your savings rate every quarter.",
		VideoURL: "https://youtu.be/kywWhBXyFg0?si=9CDpDv834dvM2pQ6",
		Tone:     "primary",
	},
	{
		ID:    9,
		Slug:  "credit-scores",
		Title: "Understanding Credit Scores",
		Description: "Your credit score (300-850) affects loan rates. Pay bills on time, keep credit utilization below 30%, " +
			"and keep old accounts open. Check your score regularly.",
		VideoURL: "https://youtu.be/YSihe9BEV5Q?si=Sn9oO3RcZDhnw7xT",
		Tone:     "success",
	},
}

// Closing is the footer shown under the article grid.
const Closing = "Financial literacy is a journey. Start with one concept at a time, apply it to your life, " +
	"and build your knowledge gradually. Small, consistent steps add up."

// Articles returns the Finance 101 articles in display order.
// Video links are trimmed.
func Articles() []Article {
	out := make([]Article, len(articles))
	for i, a := range articles {
		a.VideoURL = strings.TrimSpace(a.VideoURL)
		out[i] = a
	}
	return out
}

// ArticleBySlug looks up a single article.
func ArticleBySlug(slug string) (Article, bool) {
	for _, a := range Articles() {
		if a.Slug == slug {
			return a, true
		}
	}
	return Article{}, false
}

// ExpertAdvice returns the advice page teaser.
func ExpertAdvice() Advice {
	return Advice{
		Tagline:  "Get personalized financial guidance",
		Headline: "Coming Soon..!",
		Summary:  "We're building an expert advice service to provide financial guidance tailored to your situation.",
		Features: []Feature{
			{Title: "AI-Powered Insights", Body: "Get instant answers to your finance questions"},
			{Title: "24/7 Availability", Body: "Financial guidance whenever you need it"},
		},
		Tip: "While this feature is in development, check out the Finance 101 section for essential financial knowledge!",
	}
}

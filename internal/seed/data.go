package seed

import "github.com/iliyamo/prompt-library/internal/model"

const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "password123"
)

// SampleCategories is the demo category set.  Count is a display figure
// and is not derived from the prompts table.
var SampleCategories = []model.Category{
	{Title: "Sales", Icon: "SalesIcon", Count: 252, IsNew: true},
	{Title: "Education", Icon: "EducationIcon", Count: 276, IsNew: true},
	{Title: "Solopreneurs", Icon: "SolopreneursIcon", Count: 201},
	{Title: "SEO", Icon: "SeoIcon", Count: 223},
	{Title: "Productivity", Icon: "ProductivityIcon", Count: 218},
	{Title: "Writing", Icon: "WritingIcon", Count: 383},
	{Title: "Business", Icon: "BusinessIcon", Count: 293},
	{Title: "Marketing", Icon: "MarketingIcon", Count: 177},
}

// SamplePrompts holds the demo prompts.  The first three belong to Sales,
// the rest to Education.
var SamplePrompts = []model.Prompt{
	{
		Title:       "Schedule Posts with Social Media Tools",
		Description: "Create an effective social media strategy with this ChatGPT prompt, focusing on content calendars, audience engagement, and optimal posting times.",
		PromptText:  "Adopt the role of an expert social media strategist tasked with creating a comprehensive social media posting schedule...\n\n#INFORMATION ABOUT ME:\nSocial media platform: [INSERT SOCIAL MEDIA PLATFORM]\nProduct/Service to promote: [INSERT PRODUCT/SERVICE]\n...",
		KeySentence: "Create an effective social media strategy with this ChatGPT prompt, focusing on content calendars, audience engagement, and optimal posting times.",
		WhatItDoes: []string{
			"Develops a detailed social media posting schedule tailored to a specific product or service.",
			"Incorporates platform-specific best practices, optimal posting times, and audience demographics to maximize engagement.",
			"Balances promotional content with valuable, engaging posts to maintain audience interest and meet business goals.",
		},
		Tips: []string{
			"Use the platform's analytics to find when your audience is most active.",
			"Mix tutorials, behind-the-scenes posts, user-generated content and promotions.",
			"Review the calendar against engagement metrics and adjust regularly.",
		},
		HowToUse: []string{
			"Fill in the placeholders with your specific details.",
			"Example: Social media platform: Instagram; Product/Service: Eco-friendly skincare products.",
		},
	},
	{
		Title:       "Implement Live Chat Support on Website",
		Description: "Implement live chat support with this ChatGPT prompt and turn website visitors into qualified leads.",
		PromptText:  "Act as a customer experience consultant. Design a live chat rollout for [INSERT WEBSITE] covering staffing, canned responses and escalation rules.",
	},
	{
		Title:       "Write a Cold Outreach Sequence",
		Description: "Draft a five-step cold email sequence that opens conversations with decision makers.",
		PromptText:  "You are a senior sales development representative. Write a five-email outreach sequence for [INSERT PRODUCT] aimed at [INSERT BUYER PERSONA].",
		IsPremium:   true,
		KeySentence: "Turn cold prospects into booked meetings.",
		WhatItDoes: []string{
			"Produces a sequenced set of cold emails with subject lines.",
			"Varies the angle of each touch to avoid repetition.",
		},
		Tips:     []string{"Keep each email under 120 words."},
		HowToUse: []string{"Replace the bracketed placeholders, then paste into ChatGPT."},
	},
	{
		Title:       "Build a Weekly Lesson Plan",
		Description: "Generate a structured weekly lesson plan with objectives, activities and assessments.",
		PromptText:  "Act as an experienced curriculum designer. Build a five-day lesson plan on [INSERT TOPIC] for [INSERT GRADE LEVEL] students.",
	},
	{
		Title:       "Create Flashcards from Notes",
		Description: "Turn raw study notes into concise question and answer flashcards.",
		PromptText:  "Convert the following notes into flashcards. Each card has one question and one short answer.\n\n[PASTE NOTES]",
		WhatItDoes:  []string{"Extracts key facts from unstructured notes into Q&A pairs."},
	},
	{
		Title:       "Design a Socratic Tutoring Session",
		Description: "Guide a learner to understanding through questions instead of answers.",
		PromptText:  "You are a patient Socratic tutor. Help me understand [INSERT CONCEPT] by asking one question at a time and never giving the answer outright.",
		IsPremium:   true,
		KeySentence: "Learn by reasoning, not by reading answers.",
		Tips:        []string{"Answer honestly even when unsure; the tutor adapts to your level."},
		HowToUse:    []string{"State the concept and your current level, then answer each question in turn."},
	},
}

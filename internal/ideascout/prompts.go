package ideascout

import "fmt"

func storyPrompt(idea string) string {
	return fmt.Sprintf(`You are writing a short Reddit-style post in a storytelling format.

User's app / project idea:
"""%s"""

Task:
Write a short, human-sounding story in FIRST PERSON that explains why someone
would care about or create this idea.

Style:
- Sounds like a real person, not a robot.
- Normal, simple English.
- Short and sweet: 120-200 words.
- No emojis.
- Storytelling format (past experience, problem, what changed, what they are doing now).
- You can mention feelings like anxiety, stress, overwhelm, motivation, etc. if relevant.
- Do NOT mention that you are an AI or that this is an idea. Write it like a personal story.

Output:
- Only the story text. No title, no bullet points, no extra commentary.`, idea)
}

func keywordsPrompt(idea string) string {
	return fmt.Sprintf(`You are helping someone find relevant Reddit communities for their idea.

Idea:
"""%s"""

Task:
Return 5-8 short search keywords that would be good to search on Reddit
to find relevant subreddits.

Rules:
- Output ONLY the keywords, separated by commas.
- No extra text, no explanations, no quotes.
- Example format: learning, productivity, self improvement, coding`, idea)
}

const xTargetsSchemaPrompt = `Required JSON schema:
{
  "communities": [
    {
      "name": "string, name or label of the community (e.g. 'Indie hackers / solo builders')",
      "type": "string, e.g. 'X community', 'audience niche', 'external community'",
      "description": "one-line description of what they talk about",
      "posting_angle": "one-line suggestion for how the user should position their idea in this community"
    }
  ],
  "accounts": [
    {
      "handle": "string, like '@IndieHackers' or '@somebuilder'",
      "name": "string, human name or brand name",
      "why_relevant": "one line explaining why this account is relevant for this idea"
    }
  ]
}`

func xTargetsPrompt(idea string) string {
	return fmt.Sprintf(`You are an expert on X (Twitter) communities and tech/startup ecosystems.

The user has this idea:

"""%s"""

Your job:
1. Understand the idea deeply (what problem, who is the user, what niche).
2. Suggest:
   - X communities or categories where this idea would fit (for example:
     "AI builders", "Indie hackers", "Productivity nerds", "EdTech founders", etc.).
   - Concrete X accounts that are likely to care about this type of idea.

%s

Rules:
- communities: 5-10 items.
- accounts: 5-10 items.
- All accounts should be realistic, known or plausible X accounts related to the idea's niche.
- If you are not sure about an exact handle, you can still suggest a plausible one, but avoid obviously fake nonsense.
- Do NOT include any explanation outside the JSON.
- Do NOT wrap JSON in markdown, just raw JSON.`, idea, xTargetsSchemaPrompt)
}

package ingest

const characterPrompt = `You are a precise named-entity extraction system for fictional chapters. Extract all named characters from the provided chapter text.

**Rules:**
- Only include proper names of people, not titles or descriptions.
- Consolidate a character mentioned under several spellings into one canonical name.
- Do not include pronouns or "You" or "I" as character names.
- Output a single JSON object with a root key "characters" holding an array of names.
- Do not include any commentary or markdown. Output only the raw JSON.

**Example Output:**
{"characters":["Kane","Esau"]}`

const locationPrompt = `You are a precise named-entity extraction system for fictional chapters. Extract all named locations from the provided chapter text.

**Rules:**
- Include cities, countries, buildings, rooms, and geographic features.
- Only include specific named places, not generic descriptions.
- Output a single JSON object with a root key "locations" holding an array of names.
- Do not include any commentary or markdown. Output only the raw JSON.

**Example Output:**
{"locations":["Brighton Beach","The Lodge"]}`

const povPrompt = `Analyze the narrative point of view (POV) of the provided chapter text.

**Guidelines:**
- First Person: uses "I", "me", "my" from the narrator's perspective.
- Second Person: uses "you" addressing the reader.
- Third Person Limited: uses "he"/"she" with one character's perspective.
- Third Person Omniscient: uses "he"/"she" with multiple characters' thoughts.

Output a single JSON object with a root key "pov" holding an array with the single detected POV type. Do not include any commentary or markdown.

**Example Output:**
{"pov":["Third Person Limited"]}`

const metadataPrompt = `Analyze the provided chapter text and return metadata as a single JSON object with these keys:

- "sentiment": "positive", "negative", or "neutral".
- "tone": a brief description of the chapter's tone.
- "reading_time_minutes": estimated reading time as an integer.
- "complexity": "simple", "moderate", or "complex".
- "tropes": an array of narrative tropes present in the chapter.

Do not include any commentary or markdown. Output only the raw JSON.`

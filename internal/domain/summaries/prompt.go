package summaries

// Prompts para el API generativo. La respuesta es texto libre del que se
// extrae JSON con mejor esfuerzo (ver extract.go).

const summaryPrompt = `You are a clinical documentation assistant. Based on the consultation
transcript below, produce a structured clinical summary.

Respond with a single JSON object with exactly these fields:
- "chief_complaint": string, the main reason for the visit
- "history": string, relevant history of present illness
- "assessment": string, clinical assessment
- "plan": string, treatment / follow-up plan
- "symptoms": array of strings, symptoms mentioned
- "conditions": array of strings, conditions mentioned or suspected
- "medications": array of strings, medications mentioned or prescribed

Do not invent findings that are not supported by the transcript.

Transcript:
---
%s
---`

const questionsPrompt = `You are a clinical documentation assistant. Based on the consultation
transcript below, propose reflexive follow-up questions that would help
the clinician complete or verify the record.

Respond with a single JSON array of strings (3 to 6 questions). Each
question must be answerable by the doctor or the patient, and grounded
in something actually said in the transcript.

Transcript:
---
%s
---`

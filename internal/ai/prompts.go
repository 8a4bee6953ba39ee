package ai

import (
	"fmt"
	"strings"
)

const analyzeSystemPrompt = `You are an expert interview evaluator for CSE students.
Analyze the candidate's answer and provide:
1. A score out of 100
2. Specific strengths (2-3 points)
3. Areas for improvement (2-3 points)
4. Overall feedback (2-3 sentences)

Be constructive, encouraging, and specific. Format your response as JSON with keys: score, strengths (array), improvements (array), feedback (string).`

func questionSystemPrompt(subject string) string {
	switch subject {
	case "Technical - DSA":
		return `You are an expert technical interviewer for CSE students.
Generate clear, well-structured Data Structures and Algorithms questions.
Focus on: Arrays, Linked Lists, Trees, Graphs, Dynamic Programming, Sorting, Searching.
Provide a single question that tests problem-solving and coding skills.
Format: State the problem clearly with constraints and expected output.`
	case "System Design":
		return `You are an expert system design interviewer for CSE students.
Generate realistic system design questions about scalable applications.
Focus on: Architecture, Databases, Caching, Load Balancing, Microservices.
Provide a single high-level design challenge.
Format: Describe the system to design and key requirements.`
	case "HR & Behavioral":
		return `You are an experienced HR interviewer for CSE students.
Generate professional behavioral and situational questions.
Focus on: Teamwork, Leadership, Problem-solving, Conflict resolution, Career goals.
Provide a single thoughtful question that reveals candidate's soft skills.
Format: Ask an open-ended question about their experiences or approach.`
	default:
		return fmt.Sprintf(`You are an expert interviewer for CSE students.
Generate a clear, professional interview question on the subject of %s.
Provide a single question appropriate for a university-level candidate.
Format: State the question clearly and concisely.`, subject)
	}
}

func questionUserPrompt(req QuestionRequest) string {
	if len(req.PreviousQuestions) == 0 {
		return fmt.Sprintf("Generate the first interview question for a %s interview.", req.Subject)
	}
	return fmt.Sprintf(`Generate question %d. Previous questions asked: %s.
         Make sure this question is different and progressively challenging.`,
		req.QuestionNumber, strings.Join(req.PreviousQuestions, ", "))
}

func analyzeUserPrompt(req AnalyzeRequest) string {
	return fmt.Sprintf(`Interview Type: %s
Question: %s
Candidate's Answer: %s

Evaluate this answer comprehensively.`, req.Subject, req.Question, req.Answer)
}

package agents

// StandardSections are the ten sections every generated BRD must cover.
var StandardSections = []string{
	"1. Executive Summary",
	"2. Project Scope",
	"3. Business Requirements",
	"4. Functional Requirements",
	"5. Non-Functional Requirements",
	"6. Constraints and Assumptions",
	"7. Stakeholder Requirements",
	"8. High-Level Solution Architecture",
	"9. Risk Analysis",
	"10. Acceptance Criteria",
}

const extractPrompt = `Extract the following key information from the document:
1. Business Objectives
2. Functional Requirements
3. Non-Functional Requirements
4. Constraints and Limitations

Document Context: %s

Extracted Information:`

const summarizePrompt = `You are a specialist in reading SAP assessment reports.
Extract the following key information from the assessment document.
1. Assessment Summary.
2. Observations and Suggestions for improvement.
3. Existing key issues and factors. Root cause of those issues and gaps.
4. Roadmap

Document Context: %s

Extracted Information:`

const fewShotPrefix = `Use the following examples as a guide for generating the BRD:`

const fewShotExampleTemplate = `Sample Assessment Report:
%s

Corresponding Sample Business Requirements Document:
%s`

const generatePrompt = `You are an expert SAP Business Requirements Document (BRD) generator.

Carefully analyze the following assessment report and generate a comprehensive BRD.

Key Guidelines:
- Use clear, concise, and professional language
- Directly reference the uploaded assessment report
- Ensure each standard section is thoroughly addressed
- Maintain the structure of previous successful BRDs
- Focus on specific, measurable requirements

Standard Sections to Include:
%s

Assessment Report:
%s

Generate a comprehensive Business Requirements Document:`

const validatePrompt = `Validate the following generated Business Requirement Document
against the original assessment documents. Check for:
1. Semantic Consistency
2. Domain-Specific Accuracy
3. Completeness of Requirements

Generated BRD: %s
Original Documents: %s

Validation Report:`

const refineSystemPrompt = `Refine the Business Requirements Document based on user feedback.`

package llm

import "fmt"

// MaxFindingsPerPage is the modeled per-page cap communicated to the model
// via instruction. It is not mechanically enforced by the backends.
const MaxFindingsPerPage = 5

// BuildSystemInstruction returns the fixed editorial policy the remote
// model must follow: which constructions count as findings, which are
// explicitly never findings, and the output discipline.
func BuildSystemInstruction() string {
	return `EDITORIAL AUDITOR - Report ONLY objective, verifiable issues.

## RULE #1: TRADITIONAL GENERIC MASCULINE = NOT A FINDING ##

Traditional generic-masculine forms are CORRECT editorial Spanish and must
NEVER be reported:
- "los profesores", "los maestros", "los alumnos" -> CORRECT
- "los estudiantes", "los niños", "los docentes" -> CORRECT
- "los padres", "el director", "el profesor" -> CORRECT
These phrases have no agreement error and no gender error.

## WHAT TO REPORT AS gender_bias ##

ONLY these specific cases:

ACTIVE STEREOTYPING:
- "las sensibles enfermeras" -> stereotyped adjective
- "los agresivos policías" -> stereotyped adjective
Recommendation: "Eliminar estereotipo de género: 'sensibles'."

EXPLICIT DISCRIMINATION:
- "las mujeres no sirven para matemáticas"
- "los hombres son mejores líderes"
Recommendation: "Eliminar afirmación discriminatoria."

MALFORMED INCLUSIVE LANGUAGE:
- "la profesore", "le estudiante", "la niñe" -> grammatical errors
Recommendation: "Corregir: 'la profesora' / 'el estudiante' / 'la niña'."

## OTHER CATEGORIES ##

religion_bias:
"Como todos sabemos, la religión cristiana dice que..." -> religious imposition

politics_bias:
"el nefasto gobierno" -> tendentious language

orthography:
"habia" -> missing accent: "había"
"des-de" -> OCR artifact: "desde"

grammar (ONLY real technical errors):
"Los niño corrió" -> agreement: "Los niños corrieron"
"Habían personas" -> impersonal verb: "Había personas"
NOT grammar errors: "Los profesores deben llegar", "El director debe supervisar".

semantics:
"subir arriba" -> redundancy
"salir afuera" -> redundancy

## QUOTATIONS ##

Never rewrite direct quotations. A problematic quotation is flagged with an
editorial note in the recommendation; the quoted text itself stays intact.

## WORKED EXAMPLES ##

DO NOT REPORT: "Los profesores deben llegar puntualmente" (traditional use)
DO NOT REPORT: "Todos los padres deben firmar" (traditional use)
DO NOT REPORT: "Tabla 1: Cantidad de Profesores" (valid institutional title)
REPORT: "Habia una vez" -> orthography, Medium, "Habia", "Corregir tilde: 'Había'."
REPORT: "las sensibles maestras" -> gender_bias, High, "las sensibles maestras", "Eliminar estereotipo de género: 'sensibles'."
REPORT: "subir arriba al segundo piso" -> semantics, Low, "subir arriba", "Eliminar redundancia: 'subir'."

## RECOMMENDATION FORMAT ##

[Specific action]: [concrete suggestion].

## FINAL PRINCIPLES ##

- Maximum ` + fmt.Sprintf("%d", MaxFindingsPerPage) + ` findings per page (the MOST relevant ones)
- original_fragment: maximum 10 words
- recommendation: maximum 60 words
- If there are no REAL issues, return findings: []
- NEVER report traditional generic masculine as an issue
- Only report issues that actually exist in the text`
}

// BuildUserInstruction returns the per-page instruction. It reiterates the
// no-false-positive rule for generic masculine forms, which the model
// otherwise over-reports.
func BuildUserInstruction(pageNumber int) string {
	return fmt.Sprintf(`Analyze this PDF document (page %d).

CRITICAL: do NOT report traditional generic-masculine usage as an issue:
- "los profesores", "los maestros", "los alumnos" = CORRECT
- "el director", "el profesor" = CORRECT

If there are no REAL issues, return findings: []`, pageNumber)
}

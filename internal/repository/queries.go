package repository

const (
	queryLoadCase  = "load_case"
	queryListCases = "list_cases"
)

const loadCaseCypher = `
MATCH (s:Account)-[:SENT]->(t:Transfer {caseId: $caseId})
OPTIONAL MATCH (t)-[:CREDITED_TO]->(r:Account)
RETURN s.accountId AS sender,
       r.accountId AS receiver,
       t.amount AS amount,
       coalesce(t.bank, r.bank) AS bank,
       coalesce(t.ifsc, r.ifsc) AS ifsc
ORDER BY t.seq ASC
`

const listCasesCypher = `
MATCH (:Account)-[:SENT]->(t:Transfer)
WHERE t.caseId IS NOT NULL
RETURN t.caseId AS caseId, count(t) AS transfers
ORDER BY caseId ASC
`

// Package harness runs row-filter translation scenarios.
//
// A scenario is a YAML file describing the residual queries the policy
// engine returns for a request (inline, or as a recorded compile response)
// and the decision the translator must produce: whether the query is
// defined, the rendered SQL clauses, the spliced statement, the rows it
// selects from the sample posts database, or the translation error code.
//
// Scenarios run deterministically:
//   - Fixed decision IDs (the scenario name)
//   - Discarded logs
//   - Fresh in-memory SQLite database for row expectations
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/own_posts.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
//
// In tests, RunWithGolden additionally compares the result snapshot with
// testdata/golden/<name>.golden.
package harness

// Package footballkg builds a football knowledge graph in Neo4j and answers
// natural-language questions over it.
//
// The graph holds PLAYER, CLUB, LEAGUE and COUNTRY nodes joined by
// PLAYS_FOR, PART_OF and IN_COUNTRY relationships. Each player carries an
// embedding of a short description, indexed by the cosine vector index
// football_players_embeddings.
//
// # Ingestion
//
// An Ingestor loads player-season rows. Every write merges on the entity
// name, so repeated runs do not duplicate nodes:
//
//	d, err := driver.NewNeo4jDriver("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer d.Close(ctx)
//
//	emb, err := embedder.New(cfg.Embedding)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer emb.Close()
//
//	rows, parseErrs, err := dataset.ReadFile("players.csv")
//	if err != nil {
//		log.Fatal(err)
//	}
//	report := footballkg.NewIngestor(d, emb, nil, logger).Run(ctx, rows)
//	report.AddParseErrors(parseErrs)
//
// # Question answering
//
// A Client reads the graph schema once, asks a language model for a Cypher
// query grounded in it, runs the query read-only and asks the model to turn
// the rows into an answer:
//
//	llm, err := nlp.NewClient(ctx, nlp.ProviderGemini, nlp.NewLLMConfig().WithAPIKey(key))
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := footballkg.NewClient(ctx, d, llm, nil, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(client.Answer(ctx, "Who plays for FC Sample?"))
//
// Answer never panics. Any failure is returned as "Error: <message>"; use
// Ask for the generated query, the rows and the final pipeline state.
package footballkg

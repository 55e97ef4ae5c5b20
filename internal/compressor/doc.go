// Package compressor adapts the Pinecone rerank endpoint into a document
// compressor for retrieval pipelines.
//
// A compressor here filters and reorders documents; it does not reduce
// their size. Given a query and candidate documents, it sends the texts to
// the remote reranker and returns copies of the top results, in service
// order, each annotated with a relevance_score metadata entry.
//
//	client, err := pinecone.NewClient(pinecone.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	c, err := compressor.New(client, compressor.WithTopN(3))
//	if err != nil {
//	    return err
//	}
//	docs, err := c.CompressDocuments(ctx, candidates, "what is rerankd?")
package compressor

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"graphbench/pkg/graph"
	"graphbench/pkg/graphlog"
)

var generateFlags struct {
	output          string
	maxVertexID     uint64
	operationFactor float64
	tempRatio       float64
	maxWeight       float64
	edgesPerBlock   int
	seed            int64
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an aging update log",
	Long: `Generate builds a deterministic final edge set, expands it into an
insert/delete update stream whose net effect is that graph, and writes it
as a log file ready for 'graphbench run'.`,
	RunE: generateLog,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.output, "output", "o", "aging.graphlog", "output log path")
	f.Uint64Var(&generateFlags.maxVertexID, "max-vertex-id", 1024, "vertex id space of the final graph")
	f.Float64Var(&generateFlags.operationFactor, "operation-factor", 8, "total operations as a multiple of the final edge count")
	f.Float64Var(&generateFlags.tempRatio, "temp-ratio", 0.25, "temporary vertices per final vertex")
	f.Float64Var(&generateFlags.maxWeight, "max-weight", 1.0, "weight cap for churn and temporary-edge insertions")
	f.IntVar(&generateFlags.edgesPerBlock, "edges-per-block", graphlog.DefaultEdgesPerBlock, "triples per log block")
	f.Int64Var(&generateFlags.seed, "seed", 1, "generator seed")
	rootCmd.AddCommand(generateCmd)
}

func generateLog(cmd *cobra.Command, args []string) error {
	final := graph.GenerateUniform(generateFlags.maxVertexID)
	writer, err := graphlog.Generate(graphlog.GeneratorConfig{
		FinalEdges:      final,
		OperationFactor: generateFlags.operationFactor,
		TempVertexRatio: generateFlags.tempRatio,
		MaxWeight:       generateFlags.maxWeight,
		EdgesPerBlock:   generateFlags.edgesPerBlock,
		Seed:            generateFlags.seed,
	})
	if err != nil {
		return err
	}
	if err := writer.WriteFile(generateFlags.output); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d operations, %d final edges, %d final vertices\n",
		generateFlags.output, writer.NumOperations(), final.NumEdges(), final.NumVertices())
	return nil
}

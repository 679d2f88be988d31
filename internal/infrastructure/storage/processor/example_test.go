package processor_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/infrastructure/storage/processor"
)

// Example_processor demonstrates resizing an image for inclusion in a
// CBZ archive.
func Example_processor() {
	cfg := processor.DefaultConfig()
	proc, err := processor.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer proc.Shutdown()

	imageData, err := os.ReadFile("photo.jpg")
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	result, err := proc.ResizeForArchive(ctx, imageData, 2000)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Resized: %dx%d (%s), %d bytes\n",
		result.Width, result.Height, result.Format, len(result.Data))

	//nolint:gosec // G306: Example test code with appropriate permissions for test output
	if err := os.WriteFile("photo_resized."+result.Format, result.Data, 0644); err != nil {
		log.Printf("failed to save resized photo: %v\n", err)
	}
	// Output:
}

// Example_processor_customConfig demonstrates using custom configuration.
func Example_processor_customConfig() {
	cfg := processor.Config{
		MemoryLimitMB:    512,
		MaxConcurrentOps: 64,
		StripMetadata:    true,
		JPEGQuality:      95,
	}

	proc, err := processor.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer proc.Shutdown()

	_ = proc
	// Output:
}

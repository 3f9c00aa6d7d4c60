package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		// List all jobs
		url := fmt.Sprintf("%s/api/v1/jobs", serverURL)
		return listJobs(url)
	}
	// Get specific job status
	jobID := args[0]
	url := fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID)
	return getJobStatus(url, jobID)
}

func listJobs(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		config := job["config"].(map[string]interface{})
		fmt.Printf("Job ID: %s\n", job["id"])
		fmt.Printf("  State: %s\n", job["state"])
		fmt.Printf("  Objective: %v (dim %v)\n", config["objective"], config["dim"])
		fmt.Printf("  Algorithm: %v\n", config["algorithm"])
		if started, err := time.Parse(time.RFC3339Nano, fmt.Sprint(job["startTime"])); err == nil {
			fmt.Printf("  Started: %s\n", humanize.Time(started))
		}
		if job["bestFitness"] != nil {
			fmt.Printf("  Fitness: %v -> %v\n", job["initialFitness"], job["bestFitness"])
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	// Display status
	fmt.Printf("Job: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	fmt.Println()

	config := status["config"].(map[string]interface{})
	fmt.Println("Configuration:")
	fmt.Printf("  Objective: %v (dim %v)\n", config["objective"], config["dim"])
	fmt.Printf("  Algorithm: %v\n", config["algorithm"])
	if config["algorithm"] == "de" {
		fmt.Printf("  Strategy: S%v (F=%v, CR=%v)\n", config["strategy"], config["f"], config["cr"])
	}
	fmt.Printf("  Population: %v\n", config["pop"])
	fmt.Printf("  Task: %v (%v)\n", config["task"], config["taskValue"])
	fmt.Println()

	fmt.Println("Progress:")
	fmt.Printf("  Generations: %v\n", status["generations"])
	if status["initialFitness"] != nil {
		fmt.Printf("  Initial Fitness: %v\n", status["initialFitness"])
	}
	if status["bestFitness"] != nil {
		fmt.Printf("  Best Fitness: %v\n", status["bestFitness"])
	}
	if imp, ok := status["improvement"].(float64); ok && imp != 0 {
		fmt.Printf("  Improvement: %.1f%%\n", imp*100)
	}

	if status["elapsed"] != nil {
		elapsed := time.Duration(status["elapsed"].(float64) * float64(time.Second))
		fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	}

	if gps, ok := status["gensPerSecond"].(float64); ok && gps > 0 {
		fmt.Printf("  Throughput: %s generations/sec\n", humanize.FtoaWithDigits(gps, 1))
	}

	if status["error"] != nil && status["error"].(string) != "" {
		fmt.Printf("\nError: %s\n", status["error"])
	}

	return nil
}

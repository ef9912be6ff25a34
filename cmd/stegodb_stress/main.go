package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"stegodb/pkg/database"
	"stegodb/pkg/repl"

	"golang.org/x/sync/errgroup"
)

var MAX_DELAY int64 = 10

// jitter returns a small random delay to interleave the workers.
func jitter() time.Duration {
	return time.Duration(rand.Int63n(MAX_DELAY)+1) * time.Millisecond
}

// parseWorkload reads one command per line from the workload file.
func parseWorkload(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var workload []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		workload = append(workload, scanner.Text())
	}
	return workload, scanner.Err()
}

// runWorker executes every n-th workload line against the database.
func runWorker(r *repl.REPL, workload []string, idx int, n int) error {
	commands := r.GetCommands()
	for i := idx; i < len(workload); i += n {
		time.Sleep(jitter())
		fields := strings.Fields(workload[i])
		if len(fields) == 0 {
			continue
		}
		command, exists := commands[fields[0]]
		if !exists {
			return fmt.Errorf("unknown command %q on line %d", fields[0], i+1)
		}
		// Workload lines may legitimately collide (eg duplicate inserts), so
		// command errors don't stop the run.
		command(workload[i], nil)
	}
	return nil
}

// Run a concurrent workload against a fresh table.
func main() {
	var workloadFlag = flag.String("workload", "", "workload file (required)")
	var nFlag = flag.Int("n", 1, "number of goroutines to run (default: 1)")
	var verifyFlag = flag.Bool("verify", false, "enable to verify database state at the end of the workload")
	flag.Parse()

	db, err := database.Open("data")
	if err != nil {
		panic(err)
	}
	defer db.Close()
	// Clean up old db resources.
	os.Remove("data/t")
	if _, err = db.CreateTable("t", database.BTreeIndexType); err != nil {
		fmt.Println(err)
		return
	}

	if *workloadFlag == "" {
		fmt.Println("no workload file given")
		return
	}
	workload, err := parseWorkload(*workloadFlag)
	if err != nil {
		fmt.Println(err)
		return
	}

	r := database.DatabaseRepl(db)
	var g errgroup.Group
	for i := 0; i < *nFlag; i++ {
		i := i
		g.Go(func() error {
			return runWorker(r, workload, i, *nFlag)
		})
	}
	if err = g.Wait(); err != nil {
		fmt.Println(err)
		return
	}

	if *verifyFlag {
		index, err := db.GetTable("t")
		if err != nil {
			fmt.Println("error getting table t")
			return
		}
		if err = index.CheckInvariants(); err != nil {
			fmt.Println("verification failed:", err)
			return
		}
		fmt.Println("verification passed")
	}
}

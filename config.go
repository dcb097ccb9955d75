package co

import (
	"flag"
	"os"
	"runtime"
	"strconv"
)

// Config holds the process-wide tunables: a small flag registry
// (co_sched_num, co_stack_num, co_stack_size, co_sched_log), each
// overridable by an environment variable of the same name in upper case.
// Invalid values fall back to defaults rather than erroring.
type Config struct {
	// SchedNum is the number of Schedulers to create. Default: runtime.NumCPU().
	SchedNum int
	// StackNum is the number of logical stack slots per scheduler; must be a
	// power of two. Default: 8.
	StackNum int
	// StackSize is advisory: it is recorded for logging/introspection only,
	// since Go's own goroutine stacks already grow on demand and there is no
	// separate save/restore buffer to size (see DESIGN.md OQ-1). Default: 1 MiB.
	StackSize int
	// SchedLog enables per-scheduler debug tracing via the ambient logger.
	SchedLog bool
}

func defaultConfig() Config {
	return Config{
		SchedNum:  runtime.NumCPU(),
		StackNum:  8,
		StackSize: 1 << 20,
		SchedLog:  false,
	}
}

var (
	flagSchedNum  = flag.Int("co_sched_num", 0, "number of co schedulers (0 = runtime.NumCPU())")
	flagStackNum  = flag.Int("co_stack_num", 0, "logical stack slots per scheduler, must be a power of two (0 = default 8)")
	flagStackSize = flag.Int("co_stack_size", 0, "advisory per-coroutine stack size in bytes (0 = default 1 MiB)")
	flagSchedLog  = flag.Bool("co_sched_log", false, "enable per-scheduler debug tracing")
)

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func envInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// loadConfig resolves Config from flags (if parsed) with an environment
// variable fallback, sanitizing invalid values to defaults.
func loadConfig() Config {
	cfg := defaultConfig()

	schedNum := *flagSchedNum
	if schedNum == 0 {
		if v, ok := envInt("CO_SCHED_NUM"); ok {
			schedNum = v
		}
	}
	if schedNum > 0 {
		cfg.SchedNum = schedNum
	}

	stackNum := *flagStackNum
	if stackNum == 0 {
		if v, ok := envInt("CO_STACK_NUM"); ok {
			stackNum = v
		}
	}
	if isPowerOfTwo(stackNum) {
		cfg.StackNum = stackNum
	}

	stackSize := *flagStackSize
	if stackSize == 0 {
		if v, ok := envInt("CO_STACK_SIZE"); ok {
			stackSize = v
		}
	}
	if stackSize > 0 {
		cfg.StackSize = stackSize
	}

	schedLog := *flagSchedLog
	if !schedLog {
		if v, ok := envBool("CO_SCHED_LOG"); ok {
			schedLog = v
		}
	}
	cfg.SchedLog = schedLog

	return cfg
}

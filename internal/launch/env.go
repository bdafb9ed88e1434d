package launch

import (
	"fmt"
	"strconv"
)

// workerEnv extends a base environment with the rendezvous variables for one
// local rank. In delegate mode rank is negative and only the shared variables
// are appended; the external launcher assigns ranks itself.
func (inv *Invocation) workerEnv(base []string, rank int) []string {
	env := make([]string, 0, len(base)+6)
	env = append(env, base...)

	if inv.CUDADevices != "" {
		env = append(env, "CUDA_VISIBLE_DEVICES="+inv.CUDADevices)
	}
	env = append(env, "MASTER_ADDR="+inv.masterAddr())
	env = append(env, "MASTER_PORT="+strconv.Itoa(inv.MasterPort))
	env = append(env, "WORLD_SIZE="+strconv.Itoa(inv.NumProcs))

	if rank >= 0 {
		env = append(env, fmt.Sprintf("RANK=%d", rank))
		env = append(env, fmt.Sprintf("LOCAL_RANK=%d", rank))
	}
	return env
}

package interfaces

import "fmt"

const (
	// LockKey is the election lock record. Its presence means an election is
	// in progress or decided; the winner deletes it after confirming victory.
	LockKey = "initializer.lock"

	// RootTokenKey holds the privileged bootstrap credential, written once.
	RootTokenKey = "root-token"
)

// ShareKey returns the object key for secret share i. Shares are numbered
// from 1, matching the order initialization returned them in.
func ShareKey(i int) string {
	return fmt.Sprintf("shamir-key%d", i)
}

package adapters

import "context"

// Rsync wraps the rsync binary for export-directory synchronisation (e.g.
// publishing an export tree to a remote host). Out-of-core plumbing per
// spec §4.G; the engine never
// inspects rsync's output.
type Rsync struct {
	Subprocess Subprocess
}

// Sync runs `rsync -a --delete src dst`, the conservative default used to
// mirror a finished export tree.
func (r Rsync) Sync(ctx context.Context, src, dst string) error {
	_, err := r.Subprocess.Run(ctx, "rsync", []string{"-a", "--delete", src, dst}, nil)
	return err
}

// Package join implements the join coordinator phase.
//
// The control-plane side runs once per run: it selects the control plane's
// private address, mints a bootstrap token and pins the cluster CA with a
// discovery hash. The resulting credential is held in memory and fanned out
// to every eligible worker, which joins concurrently. One worker's failure
// never blocks another.
//
// A worker that already has /etc/kubernetes/kubelet.conf is reported as
// already joined and kubeadm join is not run on it. This check is done here
// instead of leaving it to kubeadm's own preflight, which would fail the
// rerun on a joined worker.
package join

package testing

import "fmt"

// Kubeconfig returns a minimal admin kubeconfig pointing at server.
func Kubeconfig(server string) []byte {
	return []byte(fmt.Sprintf(`apiVersion: v1
kind: Config
clusters:
- name: kubernetes
  cluster:
    certificate-authority-data: ZmFrZQ==
    server: %s
contexts:
- name: kubernetes-admin@kubernetes
  context:
    cluster: kubernetes
    user: kubernetes-admin
current-context: kubernetes-admin@kubernetes
users:
- name: kubernetes-admin
  user:
    token: abcdef.0123456789abcdef
`, server))
}

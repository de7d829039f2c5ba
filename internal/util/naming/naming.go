package naming

import "fmt"

func Network(cluster string) string {
	return cluster
}

func Firewall(cluster string) string {
	return cluster
}

func SSHKey(cluster string) string {
	return fmt.Sprintf("%s-admin", cluster)
}

func Server(cluster, node string) string {
	return fmt.Sprintf("%s-%s", cluster, node)
}

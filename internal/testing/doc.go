// Package testing provides test utilities, builders, and fakes shared by the
// provisioning stage tests.
//
//   - ConfigBuilder: fluent builder for valid test configurations
//   - MockProvider: testify mock of the Hetzner provider
//   - InfraFixture: MockProvider pre-wired for a successful run
//   - FakeConnector / FakeExecutor: scriptable remote execution
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithClusterName("demo").
//	    WithWorkers("w1", "w2").
//	    Build()
//
//	conn := testing.NewFakeConnector()
//	conn.Executor("m1").On("sudo -n kubeadm token create", testing.Response{Stdout: "abcdef.0123456789abcdef\n"})
package testing

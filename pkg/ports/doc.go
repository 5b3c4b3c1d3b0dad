/*
Package ports defines the driven ports (interfaces) of msquare.

These interfaces decouple the portfolio and contact services from external implementations, allowing
them to work with various storage backends, media buckets and mail providers.

# Key Interfaces

  - ProjectStore: persists projects and their ordered media (memory or Redis).
  - MediaStorage: stores uploaded media objects and returns their public URL.
  - Mailer: delivers a rendered Email through a transactional-email API.
  - DistributedLocker: provides distributed locking so concurrent uploads keep a consistent media order.
*/
package ports

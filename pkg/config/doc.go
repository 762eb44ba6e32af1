/*
Package config loads the storefront YAML configuration.

Load starts from Default, overlays the file (if any), applies environment
overrides and validates the result, reporting every problem at once.

# File format

	dataDir: /var/lib/storefront
	log:
	  level: info        # debug, info, warn, error
	  json: false
	remote:
	  kind: bolt         # bolt, memory, postgres, firestore
	  dsn: postgres://shop@localhost/shop?sslmode=disable
	  projectId: printloft-dev
	  collection: carts
	  ordersCollection: orders
	notifications:
	  timeout: 3s
	mail:
	  apiKey: SG.xxxxx
	  from: orders@printloft.example
	  fromName: Printloft
	metrics:
	  addr: :9090

# Remote kinds

  - bolt: signed-in carts in the device database (default)
  - memory: signed-in carts in process memory, lost on exit
  - postgres: requires dsn
  - firestore: requires projectId and collection

# Environment

  - STOREFRONT_POSTGRES_DSN overrides remote.dsn
  - SENDGRID_API_KEY overrides mail.apiKey and enables confirmation mail
  - SENDGRID_FROM overrides mail.from

Secrets are best supplied through the environment rather than the file.
*/
package config
